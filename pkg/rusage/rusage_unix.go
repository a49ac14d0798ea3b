//go:build !windows
// +build !windows

package rusage

import (
	"os"
	"runtime"
	"syscall"
)

// Supported returns true if resource usage counters are supported on this OS.
func Supported() bool {
	return true
}

func fillPlatformCounters(r *Rusage, state *os.ProcessState) {
	if ru, ok := state.SysUsage().(*syscall.Rusage); ok && ru != nil {
		r.Maxrss = maxRSSBytes(int64(ru.Maxrss))
		r.Inblock = int64(ru.Inblock)
		r.Outblock = int64(ru.Oublock)
	}
}

// Linux and the BSDs report ru_maxrss in kilobytes, Darwin in bytes.
func maxRSSBytes(maxrss int64) int64 {
	if runtime.GOOS == "darwin" {
		return maxrss
	}
	return maxrss * 1024
}
