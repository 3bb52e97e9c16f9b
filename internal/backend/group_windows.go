//go:build windows

package backend

import (
	"os"
	"os/exec"
	"syscall"
)

// Windows has no process-group signaling analogue reachable from Go's
// syscall package; the "process-group" adapter degrades to signaling the
// child directly.
func configureGroup(cmd *exec.Cmd) {}

func signalGroup(pid int, sig syscall.Signal) error {
	return SignalPid(pid, sig)
}

// SignalPid sends sig to a single pid. Windows processes have no POSIX
// signal disposition: SIGKILL kills the process, and any other signal is
// passed on as os.Interrupt, which os.Process.Signal does not support on
// Windows and reports as an error.
func SignalPid(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if sig == syscall.SIGKILL {
		return proc.Kill()
	}
	return proc.Signal(os.Interrupt)
}
