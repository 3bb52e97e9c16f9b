// Package supervisor implements an admission-gated pool of external child
// processes: spawn, wait, per-child age limits, and a graceful-to-forceful
// shutdown escalation.
package supervisor

import (
	"context"
	"sync"
	"syscall"
	"time"

	"github.com/Paintersrp/procpool/internal/backend"
	"github.com/Paintersrp/procpool/internal/killseq"
	"github.com/Paintersrp/procpool/internal/metrics"
	"github.com/Paintersrp/procpool/internal/registry"
)

// Options configures a Supervisor. All fields are optional.
type Options struct {
	// MaxKids caps concurrently-live children. Zero means unbounded, never
	// "no children allowed".
	MaxKids int
	// Timeout is the per-child age limit. Zero disables age-killing.
	Timeout time.Duration
	// Backend selects the registered adapter by name. Defaults to
	// "processgroup" when empty.
	Backend string

	OnSpawn    Callback
	OnReap     Callback
	WhileAlive Callback

	// Debug emits diagnostic messages on significant transitions.
	Debug bool
	// DebugSink overrides where Debug messages go; defaults to DebugLog.
	DebugSink DebugSink
}

// Supervisor manages a bounded pool of external child processes. It is not
// safe to share across goroutines beyond the OS-signal relay it installs
// itself; see internal/registry for the one place that matters.
type Supervisor struct {
	opts    Options
	adapter backend.Adapter
	reg     *registry.Registry
	relay   *signalRelay

	// killed tracks pids currently mid-escalation so a slow age-kill
	// doesn't get retried by an overlapping sweep.
	mu     sync.Mutex
	killed map[int]bool
}

// New constructs a Supervisor. It fails with BackendNotFound if
// Options.Backend names an unregistered adapter.
func New(opts Options) (*Supervisor, error) {
	name := opts.Backend
	if name == "" {
		name = "processgroup"
	}
	adapter, err := backend.Lookup(name)
	if err != nil {
		return nil, &BackendNotFound{Name: name, Err: err}
	}

	s := &Supervisor{
		opts:    opts,
		adapter: adapter,
		reg:     registry.New(),
		relay:   newSignalRelay(),
		killed:  make(map[int]bool),
	}
	s.relay.install(s)
	return s, nil
}

// Close restores the signal handlers captured at construction. It does not
// touch surviving children — that is Wait's or SendSignal's job.
func (s *Supervisor) Close() {
	s.relay.restore()
}

// SpawnOption configures an individual Spawn call.
type SpawnOption func(*spawnConfig)

type spawnConfig struct {
	id    string
	extra map[string]any
}

// WithID attaches a user-supplied label to the spawned child.
func WithID(id string) SpawnOption {
	return func(c *spawnConfig) { c.id = id }
}

// WithExtra passes an opaque configuration map through to the backend.
func WithExtra(extra map[string]any) SpawnOption {
	return func(c *spawnConfig) { c.extra = extra }
}

// Spawn launches cmdline as a new child, blocking for admission if the
// pool is at capacity. It returns the backend handle on success; on
// failure the registry is left untouched.
func (s *Supervisor) Spawn(ctx context.Context, cmdline []string, opts ...SpawnOption) (backend.Handle, error) {
	cfg := &spawnConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	s.sweep(ctx, false)

	if s.opts.MaxKids > 0 {
		for s.reg.Len() >= s.opts.MaxKids {
			if err := sleepWithContext(ctx, time.Second); err != nil {
				return nil, err
			}
			if s.sweep(ctx, true) {
				break
			}
		}
	}

	handle, err := s.adapter.Start(ctx, cmdline, cfg.extra)
	if err != nil {
		return nil, err
	}

	child := &registry.Child{
		Cmd:       handle,
		ID:        cfg.id,
		Pid:       s.adapter.Pid(handle),
		StartedAt: time.Now(),
		Cmdline:   cmdline,
		Extra:     cfg.extra,
	}
	s.reg.Insert(child)
	metrics.SetKidsRunning(s.reg.Len())
	s.debug("spawned pid=" + itoa(child.Pid))

	s.invoke("on_spawn", s.opts.OnSpawn, handle, cfg.id)

	return handle, nil
}

// Wait runs sweeps until the registry empties or, if timeout > 0, until
// the deadline passes. On timeout it broadcasts TERM to survivors, waits
// five seconds, sweeps once more, and returns whether the registry is now
// empty. Survivors remain in the registry for the caller to inspect.
func (s *Supervisor) Wait(ctx context.Context, timeout time.Duration) bool {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for s.reg.Len() > 0 {
		if !deadline.IsZero() && time.Now().After(deadline) {
			s.SendSignal(syscall.SIGTERM)
			_ = sleepWithContext(ctx, 5*time.Second)
			s.sweep(ctx, false)
			return s.reg.Len() == 0
		}

		if err := sleepWithContext(ctx, time.Second); err != nil {
			return s.reg.Len() == 0
		}
		s.sweep(ctx, false)
	}
	return true
}

// SendSignal sends sig to every pid currently in the registry. It performs
// no state mutation; reaping happens on the next sweep.
func (s *Supervisor) SendSignal(sig syscall.Signal) {
	for _, pid := range s.reg.Pids() {
		_ = backend.SignalPid(pid, sig)
	}
}

func (s *Supervisor) broadcastSignal(sig syscall.Signal) {
	s.SendSignal(sig)
}

// CountKids returns the number of children currently in the registry.
func (s *Supervisor) CountKids() int { return s.reg.Len() }

// Kids returns a read-only snapshot of the current children.
func (s *Supervisor) Kids() []*registry.Child { return s.reg.Snapshot() }

// sweep is _wait_any: it runs the age-killer, then reaps every terminated
// child and invokes while_alive on the rest. If stopAfterFirstReap is set
// it returns true as soon as one reap has occurred.
func (s *Supervisor) sweep(ctx context.Context, stopAfterFirstReap bool) bool {
	s.runAgeKiller(ctx)

	for _, c := range s.reg.Snapshot() {
		if s.adapter.IsTerminated(c.Cmd) {
			s.reap(c.Pid)
			if stopAfterFirstReap {
				return true
			}
			continue
		}
		s.invoke("while_alive", s.opts.WhileAlive, c.Cmd, c.ID)
	}
	return false
}

// runAgeKiller escalates termination for every child older than
// Options.Timeout. It blocks for the duration of each escalation it
// performs.
func (s *Supervisor) runAgeKiller(ctx context.Context) {
	if s.opts.Timeout <= 0 {
		return
	}
	for _, c := range s.reg.OlderThan(s.opts.Timeout, time.Now()) {
		if s.markKilling(c.Pid) {
			s.terminate(ctx, c)
			metrics.IncrementAgeKills()
		}
	}
}

func (s *Supervisor) markKilling(pid int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.killed[pid] {
		return false
	}
	s.killed[pid] = true
	return true
}

func (s *Supervisor) clearKilling(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.killed, pid)
}

func (s *Supervisor) terminate(ctx context.Context, c *registry.Child) {
	defer s.clearKilling(c.Pid)
	s.debug("age exceeded, terminating pid=" + itoa(c.Pid))
	if t, ok := s.adapter.(backend.Terminator); ok {
		_ = t.Terminate(ctx, c.Cmd)
		return
	}
	killseq.Run(ctx, func(sig syscall.Signal) error {
		metrics.ObserveKillStep(sig.String())
		return backend.SignalPid(c.Pid, sig)
	}, func() bool { return s.adapter.IsTerminated(c.Cmd) }, killseq.Default)
}

// reap removes pid's record, invokes on_reap, then closes and waits the
// backend handle. Removing from the registry first ensures on_reap sees
// the post-reap CountKids and can't trigger a re-reap of the same pid.
func (s *Supervisor) reap(pid int) {
	c, ok := s.reg.Delete(pid)
	if !ok {
		return
	}
	s.invoke("on_reap", s.opts.OnReap, c.Cmd, c.ID)
	_ = s.adapter.Close(c.Cmd)
	_ = s.adapter.Wait(c.Cmd)
	metrics.IncrementKidsReaped()
	metrics.SetKidsRunning(s.reg.Len())
	s.debug("reaped pid=" + itoa(pid))
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
