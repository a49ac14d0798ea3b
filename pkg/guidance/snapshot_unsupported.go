//go:build !linux
// +build !linux

package guidance

import "errors"

// TakeSnapshot reads the current core-dump settings for this process.
func TakeSnapshot() (*Snapshot, error) {
	return nil, errors.New("inspecting core-dump settings is not supported on this platform")
}
