package faultline

import (
	"bufio"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/docker/go-units"
	"github.com/faultline/faultline/internal/trigger"
	"github.com/faultline/faultline/pkg/guidance"
	"github.com/sirupsen/logrus"
)

// Inject installs the configured traceback level, announces the fault,
// applies any requested self-preparation, waits out the configured delay,
// and triggers the fault.  It does not return: the process dies from the
// fault itself, or is force-killed if the fault somehow fails to be fatal.
func (i *Injector) Inject() {
	debug.SetTraceback(i.options.Traceback)
	i.announce()
	i.prepare()
	i.wait()
	trigger.Fire(i.options.Kind)
}

// announce prints the message, the setup guidance unless Quiet, and a line
// naming the fault and the delay.  The whole block is flushed before we go
// any further: nothing runs after the fault, so nothing later can flush it.
func (i *Injector) announce() {
	w := bufio.NewWriter(i.options.ReportWriter)
	fmt.Fprintln(w, i.options.Message)
	if !i.options.Quiet {
		fmt.Fprintln(w)
		fmt.Fprint(w, guidance.Text())
		fmt.Fprintln(w)
	}
	if i.options.Delay > 0 {
		fmt.Fprintf(w, "Triggering %s in %s...\n", i.options.Kind, units.HumanDuration(i.options.Delay))
	} else {
		fmt.Fprintf(w, "Triggering %s now...\n", i.options.Kind)
	}
	if err := w.Flush(); err != nil {
		logrus.Warnf("flushing the announcement: %v", err)
	}
}

// prepare applies the optional self-preparation steps.  Failures are logged
// and otherwise ignored: preparing the environment is normally the
// operator's job, and refusing to crash because a setup call failed would
// defeat the point.
func (i *Injector) prepare() {
	for _, ulimit := range i.options.Ulimits {
		if err := applyUlimit(ulimit); err != nil {
			logrus.Warnf("applying ulimit %q: %v", ulimit, err)
		}
	}
	if i.options.CoredumpFilter != "" {
		if err := applyCoredumpFilter(i.options.CoredumpFilter); err != nil {
			logrus.Warnf("applying coredump filter %q: %v", i.options.CoredumpFilter, err)
		}
	}
}

// wait sleeps out the configured delay on the calling goroutine.
func (i *Injector) wait() {
	if i.options.Delay <= 0 {
		return
	}
	logrus.Debugf("waiting %v before triggering %s", i.options.Delay, i.options.Kind)
	time.Sleep(i.options.Delay)
}
