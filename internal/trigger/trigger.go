// Package trigger holds the fault primitives: operations that terminate the
// process at the operating-system level.  Every primitive either kills the
// process or falls through to unreachable(), which kills it instead; nothing
// in this package returns control to the caller.
package trigger

import (
	"runtime/debug"
	"unsafe"

	"github.com/faultline/faultline/define"
	"github.com/sirupsen/logrus"
)

// ViolationMarker is logged when a fault primitive fails to terminate the
// process.  Harnesses watch stderr for it: a child that prints this has
// violated the injector's contract even if it subsequently died.
const ViolationMarker = "fault did not terminate the process"

// Sink absorbs values computed by the primitives so the compiler cannot
// prove the faulting loads and stores dead.
var Sink uint64

// nullTarget stays nil for the lifetime of the process.  Routing the store
// through a package-level pointer keeps it opaque to the optimizer.
var nullTarget *uint64

// anchor is the base for the wild-address store; the faulting address is
// derived from a real allocation so that the pointer arithmetic itself is
// well-formed.
var anchor uint64

const (
	// wildOffset places the wild store far outside any plausible mapping.
	wildOffset = 1 << 41
	// recursionStackLimit caps goroutine stack growth so that the
	// stack-overflow fault triggers promptly.
	recursionStackLimit = 64 << 20
)

// Fire executes the fault primitive for kind.  It never returns.
func Fire(kind define.FaultKind) {
	logrus.Debugf("triggering %s: %s", kind, kind.Description())
	switch kind {
	case define.FaultNullDereference:
		nullDereference()
	case define.FaultStackOverflow:
		stackOverflow()
	case define.FaultIllegalInstruction:
		illegalInstruction()
	case define.FaultAbort:
		abort()
	case define.FaultOutOfBoundsWrite:
		outOfBoundsWrite()
	case define.FaultPanic:
		panicNow()
	}
	unreachable("no primitive matched " + kind.String())
}

//go:noinline
func nullDereference() {
	*nullTarget = 0xdead
	Sink = *nullTarget
	unreachable("store through nil pointer completed")
}

//go:noinline
func stackOverflow() {
	debug.SetMaxStack(recursionStackLimit)
	Sink = recurse(0)
	unreachable("unbounded recursion returned")
}

//go:noinline
func recurse(depth uint64) uint64 {
	// The frame array keeps each call's stack consumption non-trivial, and
	// feeding it back into the sum keeps the frame live across the call.
	var frame [256]uint64
	frame[depth%uint64(len(frame))] = depth
	return recurse(depth+1) + frame[(depth+1)%uint64(len(frame))]
}

//go:noinline
func panicNow() {
	panic("faultline: deliberate unrecovered panic")
}

// wildWrite stores at a fixed huge offset from a real allocation, far past
// the end of any mapped region.  It backs FaultOutOfBoundsWrite on platforms
// where a guard page cannot be constructed.
//
//go:noinline
func wildWrite() {
	p := (*uint64)(unsafe.Add(unsafe.Pointer(&anchor), wildOffset))
	*p = 0xdead
	Sink = *p
	unreachable("wild store completed")
}

// unreachable is placed after every fault primitive.  Control arriving here
// means the fault failed to be fatal; report the contract violation and make
// certain the process still dies abnormally.
func unreachable(detail string) {
	logrus.Errorf("%s: %s; forcing abnormal termination", ViolationMarker, detail)
	die()
}
