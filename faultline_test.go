package faultline

import (
	"bytes"
	"flag"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/faultline/faultline/define"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	var logLevel string
	debug := false
	if InitReexec() {
		return
	}
	flag.BoolVar(&debug, "debug", false, "turn on debug logging")
	flag.StringVar(&logLevel, "log-level", "error", "log level")
	flag.Parse()
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("error parsing log level %q: %v", logLevel, err)
	}
	if debug && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	os.Exit(m.Run())
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name        string
		options     InjectorOptions
		expectError string
	}{
		{
			name:    "defaults",
			options: InjectorOptions{Kind: define.FaultNullDereference},
		},
		{
			name:        "bogus kind",
			options:     InjectorOptions{Kind: define.FaultKind(42)},
			expectError: "unrecognized fault kind",
		},
		{
			name: "negative delay",
			options: InjectorOptions{
				Kind:  define.FaultAbort,
				Delay: -time.Second,
			},
			expectError: "negative",
		},
		{
			name: "bogus traceback level",
			options: InjectorOptions{
				Kind:      define.FaultAbort,
				Traceback: "verbose",
			},
			expectError: "traceback level",
		},
		{
			name: "traceback crash accepted",
			options: InjectorOptions{
				Kind:      define.FaultAbort,
				Traceback: "crash",
			},
		},
		{
			name: "ulimit parsed",
			options: InjectorOptions{
				Kind:    define.FaultNullDereference,
				Ulimits: []string{"core=-1"},
			},
		},
		{
			name: "bogus ulimit",
			options: InjectorOptions{
				Kind:    define.FaultNullDereference,
				Ulimits: []string{"core=lots"},
			},
			expectError: "parsing ulimit",
		},
		{
			name: "coredump filter parsed",
			options: InjectorOptions{
				Kind:           define.FaultNullDereference,
				CoredumpFilter: "0x33",
			},
		},
		{
			name: "bogus coredump filter",
			options: InjectorOptions{
				Kind:           define.FaultNullDereference,
				CoredumpFilter: "everything",
			},
			expectError: "hex bitmask",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			injector, err := New(testCase.options)
			if testCase.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), testCase.expectError)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, injector)
			assert.NotEmpty(t, injector.options.Message)
			assert.NotNil(t, injector.options.ReportWriter)
		})
	}
}

func TestNewAcceptsEveryKind(t *testing.T) {
	for _, kind := range define.AllFaultKinds() {
		t.Run(kind.String(), func(t *testing.T) {
			injector, err := New(InjectorOptions{Kind: kind})
			require.NoError(t, err)
			require.NotNil(t, injector)
		})
	}
}

func TestNewDefaultsTraceback(t *testing.T) {
	injector, err := New(InjectorOptions{Kind: define.FaultNullDereference})
	require.NoError(t, err)
	assert.Equal(t, DefaultTraceback, injector.options.Traceback)

	injector, err = New(InjectorOptions{Kind: define.FaultNullDereference, Traceback: "none"})
	require.NoError(t, err)
	assert.Equal(t, "none", injector.options.Traceback)
}

func TestNewKeepsExplicitMessage(t *testing.T) {
	injector, err := New(InjectorOptions{
		Kind:    define.FaultPanic,
		Message: "custom message",
	})
	require.NoError(t, err)
	assert.Equal(t, "custom message", injector.options.Message)
}

func TestAnnounce(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		var buf bytes.Buffer
		injector, err := New(InjectorOptions{
			Kind:         define.FaultNullDereference,
			Delay:        3 * time.Second,
			ReportWriter: &buf,
		})
		require.NoError(t, err)
		injector.announce()
		output := buf.String()
		assert.True(t, strings.HasPrefix(output, DefaultMessage+"\n"), "message has to come first:\n%s", output)
		assert.Contains(t, output, "ulimit -c unlimited")
		assert.Contains(t, output, "kernel.core_pattern")
		assert.Contains(t, output, "Triggering null-deref in 3 seconds...")
	})
	t.Run("quiet", func(t *testing.T) {
		var buf bytes.Buffer
		injector, err := New(InjectorOptions{
			Kind:         define.FaultAbort,
			Quiet:        true,
			Message:      "going down",
			ReportWriter: &buf,
		})
		require.NoError(t, err)
		injector.announce()
		output := buf.String()
		assert.Contains(t, output, "going down\n")
		assert.NotContains(t, output, "ulimit")
		assert.Contains(t, output, "Triggering abort now...")
	})
}

func TestWait(t *testing.T) {
	injector, err := New(InjectorOptions{
		Kind:         define.FaultPanic,
		Delay:        10 * time.Millisecond,
		ReportWriter: &bytes.Buffer{},
	})
	require.NoError(t, err)
	start := time.Now()
	injector.wait()
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestParseCoredumpFilter(t *testing.T) {
	testCases := []struct {
		value       string
		expect      uint64
		expectError bool
	}{
		{value: "0x33", expect: 0x33},
		{value: "33", expect: 0x33},
		{value: "7f", expect: 0x7f},
		{value: "0X1F", expect: 0x1f},
		{value: "0", expect: 0},
		{value: "", expectError: true},
		{value: "core", expectError: true},
		{value: "-1", expectError: true},
		{value: "fffffffff", expectError: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.value, func(t *testing.T) {
			bits, err := parseCoredumpFilter(testCase.value)
			if testCase.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.expect, bits)
		})
	}
}
