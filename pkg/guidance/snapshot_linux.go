package guidance

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// TakeSnapshot reads the current core-dump settings for this process.
func TakeSnapshot() (*Snapshot, error) {
	snapshot := &Snapshot{
		Traceback: os.Getenv("GOTRACEBACK"),
	}
	pattern, err := os.ReadFile("/proc/sys/kernel/core_pattern")
	if err != nil {
		return nil, fmt.Errorf("reading kernel.core_pattern: %w", err)
	}
	snapshot.CorePattern = strings.TrimSuffix(string(pattern), "\n")
	snapshot.PipeHandler = parseCorePattern(snapshot.CorePattern)
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_CORE, &limit); err != nil {
		return nil, fmt.Errorf("reading RLIMIT_CORE: %w", err)
	}
	snapshot.CoreLimit = Limit{Soft: limit.Cur, Hard: limit.Max}
	if filter, err := os.ReadFile("/proc/self/coredump_filter"); err == nil {
		snapshot.CoredumpFilter = strings.TrimSpace(string(filter))
	}
	return snapshot, nil
}
