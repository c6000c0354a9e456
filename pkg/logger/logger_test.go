package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-123")
	ctx = logg.WithUserID(ctx, "user-456")
	logg.Info(ctx, "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("missing request_id: %v", entry)
	}
	if entry["user_id"] != "user-456" {
		t.Fatalf("missing user_id: %v", entry)
	}
	if entry["service"] != "test" {
		t.Fatalf("missing service: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel("debug"); got != zerolog.DebugLevel {
		t.Fatalf("ParseLevel(debug) = %v", got)
	}
	if got := ParseLevel(""); got != zerolog.InfoLevel {
		t.Fatalf("ParseLevel(empty) = %v", got)
	}
	if got := ParseLevel("bogus"); got != zerolog.InfoLevel {
		t.Fatalf("ParseLevel(bogus) = %v", got)
	}
}
