// Package harness proves that fault injection works by spawning one child
// process per fault kind, letting each child kill itself, and checking that
// every death looks the way that kind is supposed to look.  The children are
// re-executions of the current binary, so what gets tested is the exact code
// that callers run.
package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/faultline/faultline"
	"github.com/faultline/faultline/define"
	"github.com/faultline/faultline/pkg/rusage"
	"github.com/faultline/faultline/pkg/termination"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"go.podman.io/storage/pkg/reexec"
	"golang.org/x/sync/errgroup"
)

const (
	// crashChildCommand is the reexec key for the child that triggers a
	// fault in itself.
	crashChildCommand = "faultline-crash-child"
	// DefaultTimeout is how long a child gets to die, beyond its
	// configured delay, before the harness kills it and fails the kind.
	DefaultTimeout = 30 * time.Second
)

func init() {
	reexec.Register(crashChildCommand, crashChildMain)
}

// childOptions is the configuration passed to the crash child over a pipe.
type childOptions struct {
	Kind      string `json:"kind"`
	DelayMS   int64  `json:"delayMS"`
	Message   string `json:"message"`
	Quiet     bool   `json:"quiet"`
	Traceback string `json:"traceback"`
}

// Options control a harness run.
type Options struct {
	// Kinds to exercise.  Empty means all of them.
	Kinds []define.FaultKind
	// Delay passed to each child.  Usually zero: the children have no
	// observers to wait for.
	Delay time.Duration
	// Timeout is how long each child gets to die, beyond Delay.  Zero
	// means DefaultTimeout.
	Timeout time.Duration
	// Parallel is how many children run at once.  Zero or less means one
	// at a time.
	Parallel int
	// Message is the announcement each child prints.  Empty means the
	// injector's default.
	Message string
	// OnResult, if set, is called as each child finishes.  Calls are
	// serialized.
	OnResult func(Result)
}

// Result records how one child died and whether that was acceptable.
type Result struct {
	ID        string             `json:"id"`
	Kind      define.FaultKind   `json:"-"`
	KindName  string             `json:"kind"`
	StartedAt time.Time          `json:"startedAt"`
	Duration  time.Duration      `json:"duration"`
	Status    termination.Status `json:"status"`
	Usage     rusage.Rusage      `json:"rusage"`
	Stdout    string             `json:"-"`
	Stderr    string             `json:"-"`
	Failure   string             `json:"failure,omitempty"`
}

// Passed reports whether the child died exactly the way its kind requires.
func (r Result) Passed() bool {
	return r.Failure == ""
}

// Run exercises the configured kinds and returns one Result per kind, in
// the order the kinds were given.  The returned error aggregates every
// failed kind; a nil error means every child died correctly.
func Run(ctx context.Context, options Options) ([]Result, error) {
	kinds := options.Kinds
	if len(kinds) == 0 {
		kinds = define.AllFaultKinds()
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	parallel := options.Parallel
	if parallel <= 0 {
		parallel = 1
	}
	message := options.Message
	if message == "" {
		message = faultline.DefaultMessage
	}
	results := make([]Result, len(kinds))
	var resultMutex sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallel)
	for index, kind := range kinds {
		group.Go(func() error {
			result := runOne(groupCtx, kind, options.Delay, timeout, message)
			resultMutex.Lock()
			results[index] = result
			if options.OnResult != nil {
				options.OnResult(result)
			}
			resultMutex.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	var errs *multierror.Error
	for _, result := range results {
		if !result.Passed() {
			errs = multierror.Append(errs, fmt.Errorf("%s: %s", result.Kind, result.Failure))
		}
	}
	return results, errs.ErrorOrNil()
}

// runOne spawns a single crash child and judges its death.
func runOne(ctx context.Context, kind define.FaultKind, delay, timeout time.Duration, message string) Result {
	result := Result{
		ID:        uuid.NewString(),
		Kind:      kind,
		KindName:  kind.String(),
		StartedAt: time.Now(),
	}

	// Create a pipe for passing configuration down to the child.
	preader, pwriter, err := os.Pipe()
	if err != nil {
		result.Failure = fmt.Sprintf("creating configuration pipe: %v", err)
		return result
	}
	defer preader.Close()
	config, conferr := json.Marshal(childOptions{
		Kind:      kind.String(),
		DelayMS:   delay.Milliseconds(),
		Message:   message,
		Quiet:     true,
		Traceback: faultline.DefaultTraceback,
	})
	if conferr != nil {
		pwriter.Close()
		result.Failure = fmt.Sprintf("encoding configuration for %q: %v", crashChildCommand, conferr)
		return result
	}

	cmd := reexec.Command(crashChildCommand)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	cmd.Dir = "/"
	cmd.Env = []string{fmt.Sprintf("LOGLEVEL=%d", logrus.GetLevel())}
	cmd.ExtraFiles = append([]*os.File{preader}, cmd.ExtraFiles...)
	if err := cmd.Start(); err != nil {
		pwriter.Close()
		result.Failure = fmt.Sprintf("starting %q: %v", crashChildCommand, err)
		return result
	}
	var confwg sync.WaitGroup
	confwg.Add(1)
	go func() {
		_, conferr = io.Copy(pwriter, bytes.NewReader(config))
		pwriter.Close()
		confwg.Done()
	}()

	status := waitChild(ctx, cmd, delay+timeout)
	confwg.Wait()
	result.Duration = time.Since(result.StartedAt)
	result.Status = status
	result.Usage = rusage.FromState(cmd.ProcessState)
	result.Usage.Elapsed = result.Duration
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	var failures *multierror.Error
	if conferr != nil {
		failures = multierror.Append(failures, fmt.Errorf("sending configuration: %w", conferr))
	}
	if err := termination.ForKind(kind).Check(status, result.Stderr); err != nil {
		failures = multierror.Append(failures, err)
	}
	if !strings.Contains(result.Stdout, message) {
		failures = multierror.Append(failures, errors.New("stdout is missing the announcement, which was supposed to be flushed before the fault"))
	}
	if err := failures.ErrorOrNil(); err != nil {
		result.Failure = err.Error()
	}
	logrus.Debugf("%s: %s after %v, %s", kind, status, result.Duration, rusage.FormatDiff(result.Usage))
	return result
}

// waitChild waits for the child to die, killing it if the deadline expires
// or ctx is canceled first.  It always reaps the child before returning.
func waitChild(ctx context.Context, cmd *exec.Cmd, deadline time.Duration) termination.Status {
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	timer := time.NewTimer(deadline)
	defer timer.Stop()
	select {
	case <-done:
		return termination.Classify(cmd.ProcessState)
	case <-timer.C:
		logrus.Warnf("child %d still alive after %v; killing it", cmd.Process.Pid, deadline)
	case <-ctx.Done():
		logrus.Debugf("canceled while waiting on child %d: %v", cmd.Process.Pid, ctx.Err())
	}
	if err := cmd.Process.Kill(); err != nil {
		logrus.Warnf("killing child %d: %v", cmd.Process.Pid, err)
	}
	<-done
	status := termination.Classify(cmd.ProcessState)
	status.TimedOut = true
	return status
}

// main() for the crash child.  It configures an injector from the options
// pipe and triggers the fault in itself; the only way it exits normally is
// if the configuration was unusable.
func crashChildMain() {
	var options childOptions

	// Set logging.
	if level := os.Getenv("LOGLEVEL"); level != "" {
		if ll, err := strconv.Atoi(level); err == nil {
			logrus.SetLevel(logrus.Level(ll))
		}
		os.Unsetenv("LOGLEVEL")
	}

	// Unpack our configuration.
	confPipe := os.NewFile(3, "confpipe")
	if confPipe == nil {
		fmt.Fprintf(os.Stderr, "error reading options pipe\n")
		os.Exit(1)
	}
	defer confPipe.Close()
	if err := json.NewDecoder(confPipe).Decode(&options); err != nil {
		fmt.Fprintf(os.Stderr, "error decoding options: %v\n", err)
		os.Exit(1)
	}

	kind, err := define.ParseFaultKind(options.Kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing options: %v\n", err)
		os.Exit(1)
	}
	injector, err := faultline.New(faultline.InjectorOptions{
		Kind:      kind,
		Delay:     time.Duration(options.DelayMS) * time.Millisecond,
		Message:   options.Message,
		Quiet:     options.Quiet,
		Traceback: options.Traceback,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error configuring injector: %v\n", err)
		os.Exit(1)
	}
	injector.Inject()
}
