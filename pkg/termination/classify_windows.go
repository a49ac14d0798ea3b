//go:build windows
// +build windows

package termination

import (
	"os"
	"syscall"
)

// Classify distills how a finished process met its end.  There are no wait
// statuses here, only exit codes.
func Classify(state *os.ProcessState) Status {
	if state == nil {
		return Status{}
	}
	return Status{Exited: state.Exited(), ExitCode: state.ExitCode()}
}

func signalName(sig syscall.Signal) string {
	return sig.String()
}
