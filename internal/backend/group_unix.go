//go:build !windows

package backend

import (
	"errors"
	"os/exec"
	"syscall"
)

func configureGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup sends sig to the process group led by pid. ESRCH (already
// gone) is not an error.
func signalGroup(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(-pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}

// SignalPid sends sig to a single pid (not its process group). Exported for
// use by the supervisor's age-killer/shutdown path when driving the
// kill-sequence executor against an adapter with no Terminate method.
func SignalPid(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}
