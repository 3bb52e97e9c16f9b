package cliutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeLogRecordWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	rec := NewLogRecord("info", "spawned", 42, "worker")
	EncodeLogRecord(enc, &buf, rec)

	var got LogRecord
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Level != "info" || got.Message != "spawned" || got.Pid != 42 || got.ID != "worker" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestNewJSONSinkEmitsOneRecordPerCall(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf)

	sink("first")
	sink("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
}
