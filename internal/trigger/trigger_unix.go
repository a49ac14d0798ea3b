//go:build !windows
// +build !windows

package trigger

import (
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

//go:noinline
func abort() {
	raise(unix.SIGABRT)
	unreachable("raised SIGABRT and survived")
}

// illegalInstruction maps a page, fills it with a permanently-undefined
// opcode, and jumps to it.  If the mapping cannot be made executable (W^X
// policies forbid this on some kernels), raising SIGILL at ourselves
// produces the same termination.
//
//go:noinline
func illegalInstruction() {
	opcode, err := undefinedOpcode()
	if err != nil {
		logrus.Debugf("%v; raising SIGILL instead", err)
		raise(unix.SIGILL)
		unreachable("raised SIGILL and survived")
		return
	}
	page, err := unix.Mmap(-1, 0, unix.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		logrus.Debugf("mmap for undefined opcode: %v; raising SIGILL instead", err)
		raise(unix.SIGILL)
		unreachable("raised SIGILL and survived")
		return
	}
	for filled := 0; filled < len(page); filled += len(opcode) {
		copy(page[filled:], opcode)
	}
	if err := unix.Mprotect(page, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		logrus.Debugf("mprotect(PROT_EXEC): %v; raising SIGILL instead", err)
		raise(unix.SIGILL)
		unreachable("raised SIGILL and survived")
		return
	}
	jumpTo(page)
	unreachable("executed undefined opcode and survived")
}

// jumpTo calls the start of page as a niladic function.  A func value is a
// pointer to a word holding the code address, so the call goes through two
// levels: fn's word points at entry, and entry holds the page.
//
//go:noinline
func jumpTo(page []byte) {
	entry := unsafe.Pointer(&page[0])
	entryPtr := unsafe.Pointer(&entry)
	fn := *(*func())(unsafe.Pointer(&entryPtr))
	fn()
}

// outOfBoundsWrite maps a data region followed by a PROT_NONE guard page and
// stores one byte past the end of the region.
//
//go:noinline
func outOfBoundsWrite() {
	pagesize := unix.Getpagesize()
	region, err := unix.Mmap(-1, 0, 2*pagesize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		logrus.Debugf("mmap for guarded region: %v; using a wild store instead", err)
		wildWrite()
		return
	}
	if err := unix.Mprotect(region[pagesize:], unix.PROT_NONE); err != nil {
		logrus.Debugf("mprotect(PROT_NONE): %v; using a wild store instead", err)
		wildWrite()
		return
	}
	data := region[:pagesize:pagesize]
	guardStore(data)
	unreachable("store into guard page completed")
}

//go:noinline
func guardStore(data []byte) {
	// Index len(data): one byte past the end, the first byte of the guard.
	p := (*byte)(unsafe.Add(unsafe.Pointer(&data[0]), len(data)))
	*p = 0xaa
	Sink += uint64(*p)
}

// undefinedOpcode returns the encoding of a permanently-undefined
// instruction for the build architecture.
func undefinedOpcode() ([]byte, error) {
	switch runtime.GOARCH {
	case "amd64", "386":
		return []byte{0x0f, 0x0b}, nil // ud2
	case "arm64":
		return []byte{0x00, 0x00, 0x00, 0x00}, nil // udf #0
	case "arm":
		return []byte{0xf0, 0x00, 0xf0, 0xe7}, nil // udf
	case "riscv64":
		return []byte{0x00, 0x00, 0x00, 0x00}, nil // unimp
	}
	return nil, fmt.Errorf("no undefined-opcode encoding for %s", runtime.GOARCH)
}

func raise(sig unix.Signal) {
	if err := unix.Kill(unix.Getpid(), sig); err != nil {
		logrus.Errorf("raising %s: %v", unix.SignalName(sig), err)
	}
	// Delivery can land on another thread; give the runtime a moment before
	// concluding the signal was lost.
	time.Sleep(time.Second)
}

// die terminates the process without returning.  SIGABRT first, so the
// runtime can dump state; SIGKILL if that was somehow handled; and if even
// an unblockable signal fails to arrive, park forever rather than return.
func die() {
	_ = unix.Kill(unix.Getpid(), unix.SIGABRT)
	time.Sleep(2 * time.Second)
	_ = unix.Kill(unix.Getpid(), unix.SIGKILL)
	for {
		time.Sleep(time.Hour)
	}
}
