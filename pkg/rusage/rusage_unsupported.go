//go:build windows
// +build windows

package rusage

import "os"

// Supported returns true if resource usage counters are supported on this OS.
func Supported() bool {
	return false
}

func fillPlatformCounters(r *Rusage, state *os.ProcessState) {
}
