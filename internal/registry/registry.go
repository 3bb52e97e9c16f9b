// Package registry holds the supervisor's pid-keyed table of live,
// not-yet-reaped children.
package registry

import (
	"sync"
	"time"

	"github.com/Paintersrp/procpool/internal/backend"
)

// Child is one live-or-not-yet-reaped child's metadata.
type Child struct {
	Cmd       backend.Handle
	ID        string
	Pid       int
	StartedAt time.Time
	Cmdline   []string
	Extra     map[string]any
}

// Age reports how long ago the child was spawned, relative to now.
func (c *Child) Age(now time.Time) time.Duration {
	return now.Sub(c.StartedAt)
}

// Registry is a pid-keyed map of Child records. The spec's cooperative,
// single-threaded model needs no locking, but this implementation adds one
// anyway: Go delivers OS signals to a dedicated goroutine, and that
// goroutine's SendSignal broadcast reads the same map the main goroutine's
// spawn/sweep loop mutates.
type Registry struct {
	mu    sync.Mutex
	byPid map[int]*Child
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{byPid: make(map[int]*Child)}
}

// Insert adds c, keyed by c.Pid.
func (r *Registry) Insert(c *Child) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPid[c.Pid] = c
}

// Lookup returns the child recorded under pid, if any.
func (r *Registry) Lookup(pid int) (*Child, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byPid[pid]
	return c, ok
}

// Delete removes and returns the child recorded under pid, if any.
func (r *Registry) Delete(pid int) (*Child, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byPid[pid]
	if ok {
		delete(r.byPid, pid)
	}
	return c, ok
}

// Len reports the number of live records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byPid)
}

// Snapshot returns a stable copy of the current records, safe to range
// over even while the registry is concurrently mutated (e.g. by a reap
// triggered from within the iteration). Order is unspecified.
func (r *Registry) Snapshot() []*Child {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Child, 0, len(r.byPid))
	for _, c := range r.byPid {
		out = append(out, c)
	}
	return out
}

// OlderThan returns the records whose age exceeds d as of now.
func (r *Registry) OlderThan(d time.Duration, now time.Time) []*Child {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Child
	for _, c := range r.byPid {
		if c.Age(now) > d {
			out = append(out, c)
		}
	}
	return out
}

// Pids returns every pid currently recorded. Order is unspecified.
func (r *Registry) Pids() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.byPid))
	for pid := range r.byPid {
		out = append(out, pid)
	}
	return out
}
