package supervisor

import (
	"fmt"

	"github.com/Paintersrp/procpool/internal/backend"
)

// BackendNotFound is returned from New when Options.Backend names an
// unregistered adapter.
type BackendNotFound struct {
	Name string
	Err  error
}

func (e *BackendNotFound) Error() string {
	return fmt.Sprintf("supervisor: backend %q: %v", e.Name, e.Err)
}

func (e *BackendNotFound) Unwrap() error { return e.Err }

// SpawnFailed is returned from Spawn when the backend could not launch the
// child. The registry is left unmodified.
type SpawnFailed = backend.ErrSpawnFailed

// CallbackError wraps a panic or error raised by a user callback. It is
// never returned to a caller — the supervisor catches, logs, and swallows
// it — but is exported so tests and debug logging can inspect what went
// wrong.
type CallbackError struct {
	Callback string // "on_spawn", "on_reap", or "while_alive"
	ID       string
	Err      error
}

func (e *CallbackError) Error() string {
	id := e.ID
	if id == "" {
		id = "[no ID provided]"
	}
	return fmt.Sprintf("supervisor: %s callback for %s: %v", e.Callback, id, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }
