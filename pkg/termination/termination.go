// Package termination classifies how a process died and decides whether
// that death matches what a given fault kind is supposed to produce.
package termination

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/faultline/faultline/define"
	"github.com/faultline/faultline/internal/trigger"
	"github.com/hashicorp/go-multierror"
)

// Status distills a process's exit: either it exited on its own, with a
// status code, or a signal killed it, possibly leaving a core dump.
type Status struct {
	// TimedOut is set by callers that gave up waiting and killed the
	// process themselves.
	TimedOut   bool           `json:"timedOut,omitempty"`
	Exited     bool           `json:"exited,omitempty"`
	ExitCode   int            `json:"exitCode,omitempty"`
	Signaled   bool           `json:"signaled,omitempty"`
	Signal     syscall.Signal `json:"signal,omitempty"`
	CoreDumped bool           `json:"coreDumped,omitempty"`
}

// String renders the status the way a shell reports it.
func (s Status) String() string {
	switch {
	case s.TimedOut:
		return "timed out"
	case s.Signaled && s.CoreDumped:
		return fmt.Sprintf("killed by %s (core dumped)", signalName(s.Signal))
	case s.Signaled:
		return fmt.Sprintf("killed by %s", signalName(s.Signal))
	case s.Exited:
		return fmt.Sprintf("exited with status %d", s.ExitCode)
	}
	return "unknown"
}

// Expectation describes the deaths a fault kind is allowed to produce.  The
// runtime routes most fatal faults through its own handler before aborting,
// so each kind permits a set of signals rather than exactly one, and the
// stderr diagnostics are what tie the death back to the specific fault.
type Expectation struct {
	// Signals are the terminating signals this kind may legitimately die
	// from.
	Signals []syscall.Signal
	// StderrMarkers are diagnostics the runtime prints on the way down; at
	// least one has to show up.
	StderrMarkers []string
}

// ForKind returns the expected death for a fault kind, assuming the process
// ran with the "crash" traceback level, which converts runtime-detected
// faults into aborts after printing their diagnostics.
func ForKind(kind define.FaultKind) Expectation {
	switch kind {
	case define.FaultNullDereference:
		return Expectation{
			Signals:       []syscall.Signal{syscall.SIGABRT, syscall.SIGSEGV},
			StderrMarkers: []string{"nil pointer dereference", "SIGSEGV"},
		}
	case define.FaultStackOverflow:
		return Expectation{
			Signals:       []syscall.Signal{syscall.SIGABRT, syscall.SIGSEGV},
			StderrMarkers: []string{"stack overflow", "goroutine stack exceeds"},
		}
	case define.FaultIllegalInstruction:
		return Expectation{
			Signals:       []syscall.Signal{syscall.SIGABRT, syscall.SIGILL, syscall.SIGSEGV},
			StderrMarkers: []string{"SIGILL", "illegal instruction"},
		}
	case define.FaultAbort:
		return Expectation{
			Signals:       []syscall.Signal{syscall.SIGABRT},
			StderrMarkers: []string{"SIGABRT", "abort"},
		}
	case define.FaultOutOfBoundsWrite:
		return Expectation{
			Signals:       []syscall.Signal{syscall.SIGABRT, syscall.SIGSEGV, syscall.SIGBUS},
			StderrMarkers: []string{"unexpected fault address", "SIGSEGV", "SIGBUS"},
		}
	case define.FaultPanic:
		return Expectation{
			Signals:       []syscall.Signal{syscall.SIGABRT},
			StderrMarkers: []string{"deliberate unrecovered panic"},
		}
	}
	return Expectation{}
}

// Check reports every way status and stderr fall short of the expectation.
// A nil return means the process died exactly the way this kind should die.
func (e Expectation) Check(status Status, stderr string) error {
	var errs *multierror.Error
	if status.TimedOut {
		errs = multierror.Append(errs, errors.New("still running when the deadline expired"))
	} else if !status.Signaled {
		errs = multierror.Append(errs, fmt.Errorf("exited with status %d instead of dying from a signal", status.ExitCode))
	} else if len(e.Signals) > 0 && !e.permits(status.Signal) {
		errs = multierror.Append(errs, fmt.Errorf("killed by %s, expected one of %s", signalName(status.Signal), e.expectedSignalNames()))
	}
	if len(e.StderrMarkers) > 0 && !containsAny(stderr, e.StderrMarkers) {
		errs = multierror.Append(errs, fmt.Errorf("stderr mentions none of %s", quotedList(e.StderrMarkers)))
	}
	if strings.Contains(stderr, trigger.ViolationMarker) {
		errs = multierror.Append(errs, errors.New("the fault failed to terminate the process and the contract guard had to"))
	}
	return errs.ErrorOrNil()
}

func (e Expectation) permits(sig syscall.Signal) bool {
	for _, expected := range e.Signals {
		if sig == expected {
			return true
		}
	}
	return false
}

func (e Expectation) expectedSignalNames() string {
	names := make([]string, 0, len(e.Signals))
	for _, sig := range e.Signals {
		names = append(names, signalName(sig))
	}
	return strings.Join(names, ", ")
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func quotedList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, fmt.Sprintf("%q", item))
	}
	return strings.Join(quoted, ", ")
}
