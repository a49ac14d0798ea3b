// Package guidance knows what an operator has to configure before a
// deliberate crash produces a core dump that lands somewhere useful, both
// as printable instructions and as a read-only snapshot of the current
// settings.  Nothing in this package changes system state.
package guidance

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/docker/go-units"
	"github.com/mattn/go-shellwords"
	"github.com/sirupsen/logrus"
)

const (
	header             = "Before running, make sure core dumps are enabled:"
	ulimitCommand      = `  $ ulimit -c unlimited`
	corePatternCommand = `  $ sysctl -w kernel.core_pattern="|/usr/lib/systemd/systemd-coredump %P %u %g %s %t %c %h"`
)

// Unlimited is the resource-limit value meaning no limit at all.
const Unlimited = ^uint64(0)

// Text returns the setup instructions that precede a fault, ending with a
// newline.  They are advice for the operator: the fault fires whether or
// not they were followed.
func Text() string {
	return header + "\n" + ulimitCommand + "\n" + corePatternCommand + "\n"
}

// Limit is a soft/hard resource-limit pair.
type Limit struct {
	Soft uint64
	Hard uint64
}

// String renders a Limit the way ulimit output does, with byte counts
// humanized.
func (l Limit) String() string {
	format := func(v uint64) string {
		if v == Unlimited {
			return "unlimited"
		}
		return units.HumanSize(float64(v))
	}
	return format(l.Soft) + " soft, " + format(l.Hard) + " hard"
}

// Snapshot is a point-in-time picture of the settings that decide where a
// core dump from this process would land.
type Snapshot struct {
	// CorePattern is kernel.core_pattern, verbatim.
	CorePattern string
	// PipeHandler is the parsed argv of the helper that CorePattern pipes
	// cores to, when it pipes at all.
	PipeHandler []string
	// CoreLimit is our RLIMIT_CORE.
	CoreLimit Limit
	// CoredumpFilter is the contents of /proc/self/coredump_filter.
	CoredumpFilter string
	// Traceback is the GOTRACEBACK environment variable, which is what the
	// runtime honored at startup.
	Traceback string
}

// Problems lists conditions under which a fault would still fire but the
// core dump would be truncated or lost entirely.
func (s *Snapshot) Problems() []string {
	var problems []string
	if s.CoreLimit.Soft == 0 {
		problems = append(problems, `RLIMIT_CORE soft limit is 0: run "ulimit -c unlimited", or inject with --ulimit core=-1`)
	}
	if s.CorePattern == "" {
		problems = append(problems, "kernel.core_pattern is empty: core dumps will be discarded")
	}
	if len(s.PipeHandler) > 0 {
		if _, err := os.Stat(s.PipeHandler[0]); errors.Is(err, fs.ErrNotExist) {
			problems = append(problems, fmt.Sprintf("kernel.core_pattern pipes core dumps to %q, which does not exist", s.PipeHandler[0]))
		}
	}
	return problems
}

// parseCorePattern returns the helper argv when pattern pipes core dumps to
// a program, nil when it names a file template instead.
func parseCorePattern(pattern string) []string {
	handler, piped := strings.CutPrefix(pattern, "|")
	if !piped {
		return nil
	}
	argv, err := shellwords.Parse(handler)
	if err != nil {
		logrus.Warnf("parsing core_pattern pipe handler %q: %v", handler, err)
		return nil
	}
	return argv
}
