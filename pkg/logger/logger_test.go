package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCloudRunHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerWriter(&buf, slog.LevelInfo)).With("request_id", "r1")

	log.Debug("hidden")
	log.Warn("claim failed", "recurring_id", "rec1", "error", errors.New("boom"))

	var entry struct {
		Severity string         `json:"severity"`
		Message  string         `json:"message"`
		Data     map[string]any `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry.Severity != "WARNING" || entry.Message != "claim failed" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Data["request_id"] != "r1" || entry.Data["recurring_id"] != "rec1" || entry.Data["error"] != "boom" {
		t.Fatalf("unexpected data: %+v", entry.Data)
	}
}

func TestContextLogger(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected default logger")
	}
	base := slog.New(NewTestHandler(slog.LevelDebug))
	ctx := ToContext(context.Background(), base)
	if FromContext(ctx) != base {
		t.Fatal("expected stored logger")
	}
	if !IsDebugEnabled(ctx) {
		t.Fatal("expected debug enabled")
	}
	enriched, ctx := With(ctx, "uid", "u1")
	if FromContext(ctx) != enriched {
		t.Fatal("expected enriched logger in context")
	}
}
