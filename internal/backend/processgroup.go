package backend

import (
	"context"
	"syscall"
	"time"
)

func init() {
	Register("processgroup", NewProcessGroup)
}

const groupCloseTimeout = 5 * time.Second

// groupAdapter is the "process-group" backend: the child is placed in its
// own process group, Close blocks (up to groupCloseTimeout) for exit, and
// Terminate runs the adapter's own graceful-then-forceful escalation
// against the whole group instead of delegating to the supervisor's
// killseq executor.
type groupAdapter struct{}

// NewProcessGroup constructs the "process-group" adapter.
func NewProcessGroup() Adapter { return &groupAdapter{} }

func (a *groupAdapter) Start(ctx context.Context, cmdline []string, extra map[string]any) (Handle, error) {
	h, err := startProc(ctx, cmdline, extra, true)
	if err != nil {
		return nil, &ErrSpawnFailed{Cmdline: cmdline, Err: err}
	}
	return h, nil
}

func (a *groupAdapter) Pid(h Handle) int { return h.(*procHandle).pid }

func (a *groupAdapter) IsTerminated(h Handle) bool { return h.(*procHandle).isTerminated() }

func (a *groupAdapter) Close(h Handle) error { return h.(*procHandle).closeBounded(groupCloseTimeout) }

func (a *groupAdapter) Wait(h Handle) error { return h.(*procHandle).wait() }

func (a *groupAdapter) Streams(h Handle) Streams { return h.(*procHandle).out }

// Terminate sends SIGTERM to the group, gives it 2s to exit, then sends
// SIGKILL and waits for the exit (or for ctx to end).
func (a *groupAdapter) Terminate(ctx context.Context, hv Handle) error {
	h := hv.(*procHandle)
	if h.isTerminated() {
		return nil
	}
	if err := signalGroup(h.pid, syscall.SIGTERM); err != nil {
		return err
	}
	select {
	case <-h.done:
		return nil
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return ctx.Err()
	}
	if h.isTerminated() {
		return nil
	}
	if err := signalGroup(h.pid, syscall.SIGKILL); err != nil {
		return err
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var (
	_ Adapter    = (*groupAdapter)(nil)
	_ Terminator = (*groupAdapter)(nil)
)
