package common

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

const (
	signalExitBase   = 128 // shell convention: a child killed by signal N exits 128+N
	abnormalExitCode = 1
)

func IgnoreErr(err error, toIgnore ...error) error {
	if err == nil {
		return nil
	}
	for _, ignoring := range toIgnore {
		if errors.Is(err, ignoring) {
			return nil
		}
	}
	return err
}

// ExitCodeOf reports the exit code carried by a process error. ok is false when
// the error did not come from a process that actually ran.
func ExitCodeOf(err error) (code int, ok bool) {
	if err == nil {
		return 0, true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return StateExitCode(exitErr.ProcessState), true
	}
	return -1, false
}

// StateExitCode never returns a negative code for a process that terminated:
// a signaled process maps to 128+signal.
func StateExitCode(ps *os.ProcessState) int {
	if ps == nil {
		return -1
	}
	if code := ps.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return signalExitBase + int(ws.Signal())
	}
	return abnormalExitCode
}
