package faultline

import (
	"fmt"
	"os"
	"strings"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

var rlimitsMap = map[string]int{
	"as":         unix.RLIMIT_AS,
	"core":       unix.RLIMIT_CORE,
	"cpu":        unix.RLIMIT_CPU,
	"data":       unix.RLIMIT_DATA,
	"fsize":      unix.RLIMIT_FSIZE,
	"locks":      unix.RLIMIT_LOCKS,
	"memlock":    unix.RLIMIT_MEMLOCK,
	"msgqueue":   unix.RLIMIT_MSGQUEUE,
	"nice":       unix.RLIMIT_NICE,
	"nofile":     unix.RLIMIT_NOFILE,
	"nproc":      unix.RLIMIT_NPROC,
	"rss":        unix.RLIMIT_RSS,
	"rtprio":     unix.RLIMIT_RTPRIO,
	"sigpending": unix.RLIMIT_SIGPENDING,
	"stack":      unix.RLIMIT_STACK,
}

// applyUlimit sets one of our own resource limits from a name=SOFT[:HARD]
// specification, with -1 meaning unlimited.
func applyUlimit(ulimit string) error {
	parsed, err := units.ParseUlimit(ulimit)
	if err != nil {
		return err
	}
	resource, recognized := rlimitsMap[strings.ToLower(parsed.Name)]
	if !recognized {
		return fmt.Errorf("unrecognized resource %q", parsed.Name)
	}
	desired := unix.Rlimit{Cur: uint64(parsed.Soft), Max: uint64(parsed.Hard)}
	if parsed.Soft == -1 {
		desired.Cur = unix.RLIM_INFINITY
	}
	if parsed.Hard == -1 {
		desired.Max = unix.RLIM_INFINITY
	}
	var current unix.Rlimit
	if err := unix.Getrlimit(resource, &current); err != nil {
		return fmt.Errorf("reading current %q limit: %w", parsed.Name, err)
	}
	if err := unix.Setrlimit(resource, &desired); err != nil {
		return fmt.Errorf("setting %q limit to soft=%d,hard=%d (was soft=%d,hard=%d): %w", parsed.Name, desired.Cur, desired.Max, current.Cur, current.Max, err)
	}
	logrus.Debugf("set %q limit to soft=%d,hard=%d", parsed.Name, desired.Cur, desired.Max)
	return nil
}

// applyCoredumpFilter adjusts which memory segments the kernel includes in
// a core dump of this process.  See core(5) for what the bits mean.
func applyCoredumpFilter(value string) error {
	bits, err := parseCoredumpFilter(value)
	if err != nil {
		return err
	}
	if err := os.WriteFile("/proc/self/coredump_filter", []byte(fmt.Sprintf("0x%x", bits)), 0o644); err != nil {
		return err
	}
	logrus.Debugf("set coredump filter to 0x%x", bits)
	return nil
}
