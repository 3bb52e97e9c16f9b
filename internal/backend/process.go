package backend

import "context"

func init() {
	Register("process", NewFull)
}

// fullAdapter is the "full-featured" backend: Close detaches rather than
// blocking on exit, and it implements no Terminate — the supervisor's
// killseq executor drives escalation for children spawned through it.
type fullAdapter struct{}

// NewFull constructs the "full-featured" process adapter.
func NewFull() Adapter { return &fullAdapter{} }

func (a *fullAdapter) Start(ctx context.Context, cmdline []string, extra map[string]any) (Handle, error) {
	h, err := startProc(ctx, cmdline, extra, false)
	if err != nil {
		return nil, &ErrSpawnFailed{Cmdline: cmdline, Err: err}
	}
	return h, nil
}

func (a *fullAdapter) Pid(h Handle) int { return h.(*procHandle).pid }

func (a *fullAdapter) IsTerminated(h Handle) bool { return h.(*procHandle).isTerminated() }

func (a *fullAdapter) Close(h Handle) error { return h.(*procHandle).closeDetached() }

func (a *fullAdapter) Wait(h Handle) error { return h.(*procHandle).wait() }

func (a *fullAdapter) Streams(h Handle) Streams { return h.(*procHandle).out }

var _ Adapter = (*fullAdapter)(nil)
