// Package cliutil provides the structured log record emitted by the
// supervisor's debug sink when driven from the command line.
package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// LogRecord represents one structured diagnostic event ready for JSON
// encoding.
type LogRecord struct {
	Timestamp time.Time `json:"ts"`
	Pid       int       `json:"pid,omitempty"`
	ID        string    `json:"id,omitempty"`
	Level     string    `json:"level"`
	Message   string    `json:"msg"`
}

// NewLogRecord builds a LogRecord for msg at the given level, stamped with
// the current time.
func NewLogRecord(level, msg string, pid int, id string) LogRecord {
	return LogRecord{
		Timestamp: time.Now(),
		Pid:       pid,
		ID:        id,
		Level:     level,
		Message:   msg,
	}
}

// EncodeLogRecord encodes rec to enc, reporting encode failures to stderr
// rather than propagating them — a debug sink must never fail the caller.
func EncodeLogRecord(enc *json.Encoder, stderr io.Writer, rec LogRecord) {
	if enc == nil {
		return
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if err := enc.Encode(&rec); err != nil {
		fmt.Fprintf(stderr, "error: encode log: %v\n", err)
	}
}

// NewJSONSink returns a supervisor.DebugSink-compatible function that
// writes each message as a LogRecord to w.
func NewJSONSink(w io.Writer) func(msg string) {
	enc := json.NewEncoder(w)
	return func(msg string) {
		EncodeLogRecord(enc, w, NewLogRecord("debug", msg, 0, ""))
	}
}
