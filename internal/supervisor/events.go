package supervisor

import (
	"fmt"
	"os"
	"time"

	"github.com/Paintersrp/procpool/internal/backend"
)

// Callback is the shape of on_spawn, on_reap, and while_alive.
type Callback func(handle backend.Handle, id string)

// DebugSink receives diagnostic messages when Options.Debug is set. The
// default, DebugLog, writes to stderr; internal/cliutil offers a
// JSON-structured alternative for CLI use.
type DebugSink func(msg string)

// DebugLog is the default DebugSink: one line per message to stderr.
func DebugLog(msg string) {
	fmt.Fprintf(os.Stderr, "%s procpool: %s\n", time.Now().Format(time.RFC3339), msg)
}

// invoke calls cb, guarding the call so a panic is converted into a
// CallbackError instead of taking down the supervisor's goroutine.
func (s *Supervisor) invoke(name string, cb Callback, h backend.Handle, id string) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			cbErr := &CallbackError{Callback: name, ID: id, Err: fmt.Errorf("panic: %v", r)}
			s.reportCallbackError(cbErr)
		}
	}()
	cb(h, id)
}

// reportCallbackError always logs, independent of Options.Debug: a caught
// callback error is logged, not merely swallowed when debugging happens to
// be on.
func (s *Supervisor) reportCallbackError(err *CallbackError) {
	sink := s.opts.DebugSink
	if sink == nil {
		sink = DebugLog
	}
	sink(err.Error())
}

func (s *Supervisor) debug(msg string) {
	if !s.opts.Debug {
		return
	}
	sink := s.opts.DebugSink
	if sink == nil {
		sink = DebugLog
	}
	sink(msg)
}
