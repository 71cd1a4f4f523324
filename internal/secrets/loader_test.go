package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "key")
	if err := os.WriteFile(file, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	t.Setenv("INTERVIEW_COACH_TEST_KEY", "from-env")

	got, err := Load(Source{Name: "gemini api key", File: file, Env: "INTERVIEW_COACH_TEST_KEY", Value: "inline"})
	if err != nil || got != "from-file" {
		t.Fatalf("expected file secret, got %q, %v", got, err)
	}

	got, err = Load(Source{Env: "INTERVIEW_COACH_TEST_KEY", Value: "inline"})
	if err != nil || got != "from-env" {
		t.Fatalf("expected env secret, got %q, %v", got, err)
	}

	got, err = Load(Source{Env: "INTERVIEW_COACH_UNSET_KEY", Value: " inline "})
	if err != nil || got != "inline" {
		t.Fatalf("expected inline secret, got %q, %v", got, err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{"missing file", Source{Name: "key", File: filepath.Join(dir, "nope")}, "read key from file"},
		{"empty file", Source{Name: "key", File: empty}, "is empty"},
		{"nothing configured", Source{Name: "key"}, "key is not configured"},
		{"env hint", Source{Name: "key", Env: "INTERVIEW_COACH_UNSET_KEY"}, "set INTERVIEW_COACH_UNSET_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
