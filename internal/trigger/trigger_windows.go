//go:build windows
// +build windows

package trigger

import (
	"os"

	"github.com/sirupsen/logrus"
)

//go:noinline
func abort() {
	// No signals to raise here; the CRT's abort() exits with status 3, so
	// do the same without unwinding.
	os.Exit(3)
}

//go:noinline
func illegalInstruction() {
	logrus.Warnf("undefined-opcode execution is not supported on this platform; using a wild store instead")
	wildWrite()
}

//go:noinline
func outOfBoundsWrite() {
	logrus.Warnf("guard pages are not supported on this platform; using a wild store instead")
	wildWrite()
}

func die() {
	os.Exit(3)
}
