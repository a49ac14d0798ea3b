//go:build !windows
// +build !windows

package trigger

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestUndefinedOpcode(t *testing.T) {
	opcode, err := undefinedOpcode()
	switch runtime.GOARCH {
	case "amd64", "386", "arm64", "arm", "riscv64":
		require.NoError(t, err)
		require.NotEmpty(t, opcode)
		// The fill loop tiles the page with the opcode, so the encoding
		// has to pack evenly.
		assert.Zero(t, unix.Getpagesize()%len(opcode), "opcode length %d does not tile a page", len(opcode))
	default:
		assert.Error(t, err)
	}
}

func TestJumpToExecutesMappedCode(t *testing.T) {
	// A page holding a lone return instruction: if the call lands on the
	// page content, it comes straight back; if the func-value plumbing
	// loses a level of indirection, it jumps through the page's bytes
	// instead and never returns here.
	var ret []byte
	switch runtime.GOARCH {
	case "amd64", "386":
		ret = []byte{0xc3}
	case "arm64":
		ret = []byte{0xc0, 0x03, 0x5f, 0xd6}
	default:
		t.Skipf("no return-instruction encoding for %s", runtime.GOARCH)
	}
	page, err := unix.Mmap(-1, 0, unix.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	require.NoError(t, err)
	defer unix.Munmap(page)
	copy(page, ret)
	if err := unix.Mprotect(page, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		t.Skipf("cannot map executable memory: %v", err)
	}
	jumpTo(page)
}

func TestViolationMarker(t *testing.T) {
	// Harnesses grep child stderr for this exact string, so it has to stay
	// stable across releases.
	assert.Equal(t, "fault did not terminate the process", ViolationMarker)
}
