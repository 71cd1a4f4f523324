// Package redis stores interview sessions in Redis. Records live in a hash per
// session written with HSETNX, so a retried save never replaces a record.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/spigell/interview-coach/internal/interview"
)

const keyPrefix = "interview:"

// Options configure the client. A zero TTL keeps keys forever.
type Options struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Journal implements the session journal on Redis.
type Journal struct {
	client *goredis.Client
	ttl    time.Duration
}

// Open connects and pings the server.
func Open(ctx context.Context, opts Options) (*Journal, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return New(client, opts.TTL), nil
}

// New wraps an existing client.
func New(client *goredis.Client, ttl time.Duration) *Journal {
	return &Journal{client: client, ttl: ttl}
}

func (j *Journal) Close() error {
	return j.client.Close()
}

const stateSuffix = ":state"

func recordsKey(sessionID string) string { return keyPrefix + sessionID + ":records" }
func stateKey(sessionID string) string   { return keyPrefix + sessionID + stateSuffix }

func sessionFromStateKey(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, keyPrefix), stateSuffix)
}

// Save appends records and replaces the snapshot inside one MULTI/EXEC block.
// Everything is encoded before the transaction opens.
func (j *Journal) Save(ctx context.Context, state *interview.SessionState, records ...interview.ResponseRecord) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	encoded := make(map[string][]byte, len(records))
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", rec.QuestionID, err)
		}
		encoded[rec.QuestionID] = raw
	}

	key := recordsKey(state.ID)
	_, err = j.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for questionID, raw := range encoded {
			pipe.HSetNX(ctx, key, questionID, raw)
		}
		if len(encoded) > 0 && j.ttl > 0 {
			pipe.Expire(ctx, key, j.ttl)
		}
		pipe.Set(ctx, stateKey(state.ID), data, j.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", state.ID, err)
	}
	return nil
}

// Snapshot returns the last saved state of the session.
func (j *Journal) Snapshot(ctx context.Context, sessionID string) (*interview.SessionState, error) {
	data, err := j.client.Get(ctx, stateKey(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("snapshot %s: %w", sessionID, interview.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get state %s: %w", sessionID, err)
	}
	var state interview.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &state, nil
}

// Records returns the appended records ordered by sequence.
func (j *Journal) Records(ctx context.Context, sessionID string) ([]interview.ResponseRecord, error) {
	fields, err := j.client.HGetAll(ctx, recordsKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get records %s: %w", sessionID, err)
	}
	out := make([]interview.ResponseRecord, 0, len(fields))
	for questionID, data := range fields {
		var rec interview.ResponseRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record %s: %w", questionID, err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Sequence < out[b].Sequence })
	return out, nil
}

// Sessions lists the ids that have a saved state, in lexical order.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	var ids []string
	iter := j.client.Scan(ctx, 0, keyPrefix+"*"+stateSuffix, 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, sessionFromStateKey(iter.Val()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
