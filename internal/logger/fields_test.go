package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFieldsFallsBackToNop(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithFields(zap.New(core), zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", entries[0].ContextMap()["foo"])
	}

	enriched := WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	enriched.Info("another log")
}

func TestQuestionFieldsSkipEmptyValues(t *testing.T) {
	fields := QuestionFields("s-1", "", "beginner_sum")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != FieldSessionID || fields[1].Key != FieldQuestionID {
		t.Fatalf("unexpected keys: %s, %s", fields[0].Key, fields[1].Key)
	}
}

func TestWithAIAndSession(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)

	log := WithSession(WithAI(zap.New(core), "gemini", "model-x"), "s-42")
	log.Debug("scored")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldProvider] != "gemini" || ctx[FieldModel] != "model-x" {
		t.Fatalf("unexpected ai fields: %v", ctx)
	}
	if ctx[FieldSessionID] != "s-42" {
		t.Fatalf("expected session id, got %v", ctx[FieldSessionID])
	}

	if len(AIFields("", "")) != 0 {
		t.Fatalf("expected no fields for empty provider and model")
	}
}
