//go:build !windows
// +build !windows

package termination

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Classify distills how a finished process met its end.
func Classify(state *os.ProcessState) Status {
	if state == nil {
		return Status{}
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok {
		return classifyWaitStatus(ws)
	}
	return Status{Exited: state.Exited(), ExitCode: state.ExitCode()}
}

func classifyWaitStatus(ws syscall.WaitStatus) Status {
	switch {
	case ws.Exited():
		return Status{Exited: true, ExitCode: ws.ExitStatus()}
	case ws.Signaled():
		return Status{Signaled: true, Signal: ws.Signal(), CoreDumped: ws.CoreDump()}
	}
	return Status{}
}

func signalName(sig syscall.Signal) string {
	if name := unix.SignalName(unix.Signal(sig)); name != "" {
		return name
	}
	return sig.String()
}
