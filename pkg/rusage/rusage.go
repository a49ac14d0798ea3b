package rusage

import (
	"fmt"
	"os"
	"time"

	"github.com/docker/go-units"
)

// Rusage summarizes the resources a reaped crash child consumed.
type Rusage struct {
	Elapsed  time.Duration `json:"elapsed,omitempty"`
	Utime    time.Duration `json:"utime,omitempty"`
	Stime    time.Duration `json:"stime,omitempty"`
	Maxrss   int64         `json:"maxRSS,omitempty"`
	Inblock  int64         `json:"inblock,omitempty"`
	Outblock int64         `json:"outblock,omitempty"`
}

// FromState extracts usage counters from a finished child process. The
// Elapsed field is left to the caller, which knows when the child started.
func FromState(state *os.ProcessState) Rusage {
	if state == nil {
		return Rusage{}
	}
	r := Rusage{
		Utime: state.UserTime(),
		Stime: state.SystemTime(),
	}
	fillPlatformCounters(&r, state)
	return r
}

// FormatDiff formats the counters for logging.
func FormatDiff(diff Rusage) string {
	return fmt.Sprintf("%s(system) %s(user) %s peak rss", diff.Stime.Round(time.Millisecond), diff.Utime.Round(time.Millisecond), units.HumanSize(float64(diff.Maxrss)))
}
