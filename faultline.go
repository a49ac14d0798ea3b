// Package faultline deliberately crashes the calling process in a handful of
// well-defined ways, so that coredump collection and crash-reporting
// pipelines can be exercised on demand instead of waiting for a real bug.
package faultline

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/faultline/faultline/define"
)

const (
	// Package is the name of this package, used in help output and as the
	// command name when re-execing ourselves.
	Package = define.Package
	// Version for the Package.
	Version = define.Version
	// DefaultDelay is how long command-line invocations wait before
	// triggering, so an observer has time to attach or to change their
	// mind.
	DefaultDelay = 3 * time.Second
	// DefaultMessage is printed before anything else happens.
	DefaultMessage = "This program will intentionally crash to generate a coredump..."
	// DefaultTraceback is the runtime traceback level installed before
	// triggering.  "crash" makes the runtime disable its own signal
	// handling and abort, which is what lets the kernel write a core.
	DefaultTraceback = "crash"
)

// InjectorOptions control how an Injector announces and triggers its fault.
type InjectorOptions struct {
	// Kind selects the fault to trigger.
	Kind define.FaultKind
	// Delay is how long to sleep between the announcement and the fault.
	// Zero means trigger immediately.
	Delay time.Duration
	// Message is printed, and flushed, before anything else happens.  If
	// empty, DefaultMessage is used.
	Message string
	// Quiet suppresses the core-dump setup guidance that normally follows
	// the message.
	Quiet bool
	// Traceback is the runtime traceback level to install before
	// triggering ("none", "single", "all", "system", or "crash").  If
	// empty, DefaultTraceback is used.
	Traceback string
	// ReportWriter receives the announcement.  Defaults to stdout, which
	// is where observers expect it.
	ReportWriter io.Writer
	// Ulimits are resource limits to apply to ourselves before
	// triggering, in name=SOFT[:HARD] form with -1 for unlimited, e.g.
	// "core=-1" to enable core dumps for this one process.
	Ulimits []string
	// CoredumpFilter, if set, is a hex bitmask written to our own
	// /proc/self/coredump_filter before triggering.  See core(5).
	CoredumpFilter string
}

// Injector carries validated options for a single fault injection.
type Injector struct {
	options InjectorOptions
}

// New validates options and returns an Injector ready to Inject().  This is
// the last chance to report a problem normally: once Inject runs, the
// process does not come back.
func New(options InjectorOptions) (*Injector, error) {
	recognized := false
	for _, kind := range define.AllFaultKinds() {
		if options.Kind == kind {
			recognized = true
			break
		}
	}
	if !recognized {
		return nil, fmt.Errorf("unrecognized fault kind %d", int(options.Kind))
	}
	if options.Delay < 0 {
		return nil, fmt.Errorf("delay %v is negative", options.Delay)
	}
	switch options.Traceback {
	case "", "none", "single", "all", "system", "crash":
	default:
		return nil, fmt.Errorf("unrecognized traceback level %q", options.Traceback)
	}
	for _, ulimit := range options.Ulimits {
		if _, err := units.ParseUlimit(ulimit); err != nil {
			return nil, fmt.Errorf("parsing ulimit %q: %w", ulimit, err)
		}
	}
	if options.CoredumpFilter != "" {
		if _, err := parseCoredumpFilter(options.CoredumpFilter); err != nil {
			return nil, err
		}
	}
	if options.Message == "" {
		options.Message = DefaultMessage
	}
	if options.Traceback == "" {
		options.Traceback = DefaultTraceback
	}
	if options.ReportWriter == nil {
		options.ReportWriter = os.Stdout
	}
	return &Injector{options: options}, nil
}

// parseCoredumpFilter checks that value is a plausible coredump_filter
// bitmask: hex, with or without a leading "0x".
func parseCoredumpFilter(value string) (uint64, error) {
	bits, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(value), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing coredump filter %q as a hex bitmask: %w", value, err)
	}
	return bits, nil
}
