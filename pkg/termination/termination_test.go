//go:build !windows
// +build !windows

package termination

import (
	"syscall"
	"testing"

	"github.com/faultline/faultline/define"
	"github.com/faultline/faultline/internal/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyWaitStatus(t *testing.T) {
	testCases := []struct {
		name   string
		status syscall.WaitStatus
		expect Status
	}{
		{
			name:   "clean exit",
			status: syscall.WaitStatus(0x0000),
			expect: Status{Exited: true},
		},
		{
			name:   "exit 1",
			status: syscall.WaitStatus(0x0100),
			expect: Status{Exited: true, ExitCode: 1},
		},
		{
			name:   "segfault without core",
			status: syscall.WaitStatus(0x000b),
			expect: Status{Signaled: true, Signal: syscall.SIGSEGV},
		},
		{
			name:   "abort with core",
			status: syscall.WaitStatus(0x0086),
			expect: Status{Signaled: true, Signal: syscall.SIGABRT, CoreDumped: true},
		},
		{
			name:   "segfault with core",
			status: syscall.WaitStatus(0x008b),
			expect: Status{Signaled: true, Signal: syscall.SIGSEGV, CoreDumped: true},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expect, classifyWaitStatus(testCase.status))
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "exited with status 2", Status{Exited: true, ExitCode: 2}.String())
	assert.Equal(t, "killed by SIGABRT (core dumped)", Status{Signaled: true, Signal: syscall.SIGABRT, CoreDumped: true}.String())
	assert.Equal(t, "killed by SIGSEGV", Status{Signaled: true, Signal: syscall.SIGSEGV}.String())
	assert.Equal(t, "timed out", Status{TimedOut: true}.String())
}

func TestForKind(t *testing.T) {
	for _, kind := range define.AllFaultKinds() {
		t.Run(kind.String(), func(t *testing.T) {
			expectation := ForKind(kind)
			require.NotEmpty(t, expectation.Signals)
			require.NotEmpty(t, expectation.StderrMarkers)
			// With the "crash" traceback level every fault funnels through
			// the runtime's abort, so SIGABRT has to be acceptable for
			// every kind.
			assert.True(t, expectation.permits(syscall.SIGABRT), "SIGABRT not permitted for %s", kind)
		})
	}
}

func TestCheck(t *testing.T) {
	abort := Status{Signaled: true, Signal: syscall.SIGABRT, CoreDumped: true}
	testCases := []struct {
		name        string
		kind        define.FaultKind
		status      Status
		stderr      string
		expectError string
	}{
		{
			name:   "null deref via runtime funnel",
			kind:   define.FaultNullDereference,
			status: abort,
			stderr: "panic: runtime error: invalid memory address or nil pointer dereference\n[signal SIGSEGV: segmentation violation code=0x1 addr=0x0 pc=0x46a3c1]\n",
		},
		{
			name:   "null deref via raw signal",
			kind:   define.FaultNullDereference,
			status: Status{Signaled: true, Signal: syscall.SIGSEGV},
			stderr: "SIGSEGV: segmentation violation\n",
		},
		{
			name:   "stack overflow",
			kind:   define.FaultStackOverflow,
			status: abort,
			stderr: "runtime: goroutine stack exceeds 67108864-byte limit\nfatal error: stack overflow\n",
		},
		{
			name:   "oob write",
			kind:   define.FaultOutOfBoundsWrite,
			status: abort,
			stderr: "unexpected fault address 0x7f1200021000\nfatal error: fault\n",
		},
		{
			name:        "clean exit is a failure",
			kind:        define.FaultAbort,
			status:      Status{Exited: true, ExitCode: 0},
			stderr:      "SIGABRT: abort\n",
			expectError: "instead of dying from a signal",
		},
		{
			name:        "wrong signal",
			kind:        define.FaultAbort,
			status:      Status{Signaled: true, Signal: syscall.SIGKILL},
			stderr:      "SIGABRT: abort\n",
			expectError: "killed by SIGKILL",
		},
		{
			name:        "missing diagnostics",
			kind:        define.FaultPanic,
			status:      abort,
			stderr:      "nothing useful here\n",
			expectError: "stderr mentions none of",
		},
		{
			name:        "contract guard fired",
			kind:        define.FaultAbort,
			status:      abort,
			stderr:      "SIGABRT: abort\nlevel=error msg=\"" + trigger.ViolationMarker + ": raised SIGABRT and survived; forcing abnormal termination\"\n",
			expectError: "failed to terminate",
		},
		{
			name:        "timed out",
			kind:        define.FaultStackOverflow,
			status:      Status{TimedOut: true},
			stderr:      "",
			expectError: "deadline",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := ForKind(testCase.kind).Check(testCase.status, testCase.stderr)
			if testCase.expectError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), testCase.expectError)
		})
	}
}
