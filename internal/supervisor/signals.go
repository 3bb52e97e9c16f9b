package supervisor

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Paintersrp/procpool/internal/backend"
)

// signalRelay installs handlers for INT and TERM that broadcast the
// received signal to every kid and then re-deliver it to this process so
// the default disposition (process death) still applies. Go has no notion
// of "the prior sigaction" to snapshot the way POSIX does; the closest
// faithful analogue is: before install, this process had no supervisor
// handler installed (the runtime default applies), and restore puts that
// back via signal.Stop. See SPEC_FULL.md §5.
type signalRelay struct {
	once sync.Once
	ch   chan os.Signal
	done chan struct{}
}

func newSignalRelay() *signalRelay {
	return &signalRelay{
		ch:   make(chan os.Signal, 4),
		done: make(chan struct{}),
	}
}

func (r *signalRelay) install(s *Supervisor) {
	signal.Notify(r.ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			select {
			case sig, ok := <-r.ch:
				if !ok {
					return
				}
				s.broadcastSignal(toSyscallSignal(sig))
				r.reraise(sig)
			case <-r.done:
				return
			}
		}
	}()
}

// restore reverts to the runtime's default signal disposition, the Go
// analogue of restoring a previously-captured sigaction.
func (r *signalRelay) restore() {
	r.once.Do(func() {
		signal.Stop(r.ch)
		close(r.done)
	})
}

// reraise re-delivers sig to this process so the default action (process
// termination) still runs after the broadcast to kids.
func (r *signalRelay) reraise(sig os.Signal) {
	signal.Stop(r.ch)
	_ = backend.SignalPid(os.Getpid(), toSyscallSignal(sig))
}

func toSyscallSignal(sig os.Signal) syscall.Signal {
	if s, ok := sig.(syscall.Signal); ok {
		return s
	}
	return syscall.SIGTERM
}
