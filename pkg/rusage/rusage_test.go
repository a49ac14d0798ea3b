//go:build !windows
// +build !windows

package rusage

import (
	"flag"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.podman.io/storage/pkg/reexec"
)

const (
	chewCommand = "rusage-test-chew"
)

func chewMain() {
	buf := make([]byte, 8<<20)
	for i := range buf {
		buf[i] = byte(i)
	}
	os.Stdout.Write(buf[:1])
}

func init() {
	reexec.Register(chewCommand, chewMain)
}

func TestMain(m *testing.M) {
	if reexec.Init() {
		return
	}
	flag.Parse()
	if testing.Verbose() {
		logrus.SetLevel(logrus.DebugLevel)
	}
	os.Exit(m.Run())
}

func TestFromState(t *testing.T) {
	if !Supported() {
		t.Skip("not supported on this platform")
	}
	cmd := reexec.Command(chewCommand)
	err := cmd.Run()
	require.Nil(t, err, "unexpected error running child process: %v", err)
	usage := FromState(cmd.ProcessState)
	t.Logf("rusage from child: %s", FormatDiff(usage))
	require.NotZero(t, usage.Maxrss, "running a child process didn't use any memory?")
}

func TestFromStateNil(t *testing.T) {
	require.Zero(t, FromState(nil))
}
