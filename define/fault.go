package define

import (
	"fmt"
	"strings"
)

// FaultKind selects which process-fatal operation the injector performs.
type FaultKind int

const (
	// FaultNullDereference stores through a pointer to address zero.
	FaultNullDereference FaultKind = iota
	// FaultStackOverflow recurses with a non-trivial frame until the
	// goroutine stack limit is exhausted.
	FaultStackOverflow
	// FaultIllegalInstruction executes a permanently-undefined opcode.
	FaultIllegalInstruction
	// FaultAbort raises the abort signal at the process itself.
	FaultAbort
	// FaultOutOfBoundsWrite stores just past the end of a mapping, into a
	// guard page with no access permissions.
	FaultOutOfBoundsWrite
	// FaultPanic panics with no recover anywhere on the stack.
	FaultPanic
)

// String converts a FaultKind into the name used on the command line.
func (k FaultKind) String() string {
	switch k {
	case FaultNullDereference:
		return "null-deref"
	case FaultStackOverflow:
		return "stack-overflow"
	case FaultIllegalInstruction:
		return "illegal-instruction"
	case FaultAbort:
		return "abort"
	case FaultOutOfBoundsWrite:
		return "oob-write"
	case FaultPanic:
		return "panic"
	}
	return fmt.Sprintf("unrecognized fault kind %d", int(k))
}

// Description returns a one-line summary of what triggering the kind does.
func (k FaultKind) Description() string {
	switch k {
	case FaultNullDereference:
		return "write through a nil pointer (address zero)"
	case FaultStackOverflow:
		return "recurse until the goroutine stack limit is exhausted"
	case FaultIllegalInstruction:
		return "execute a permanently-undefined opcode"
	case FaultAbort:
		return "raise SIGABRT at our own pid"
	case FaultOutOfBoundsWrite:
		return "write past the end of a mapping into a guard page"
	case FaultPanic:
		return "panic with no recover on the stack"
	}
	return "unknown"
}

// AllFaultKinds lists every supported kind in a stable order.
func AllFaultKinds() []FaultKind {
	return []FaultKind{
		FaultNullDereference,
		FaultStackOverflow,
		FaultIllegalInstruction,
		FaultAbort,
		FaultOutOfBoundsWrite,
		FaultPanic,
	}
}

// faultAliases maps accepted spellings to kinds, in addition to the
// canonical String() names.
var faultAliases = map[string]FaultKind{
	"nullderef":     FaultNullDereference,
	"segfault":      FaultNullDereference,
	"segv":          FaultNullDereference,
	"stackoverflow": FaultStackOverflow,
	"sigill":        FaultIllegalInstruction,
	"sigabrt":       FaultAbort,
	"oob":           FaultOutOfBoundsWrite,
}

// ParseFaultKind converts a command-line name into a FaultKind.
func ParseFaultKind(name string) (FaultKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, kind := range AllFaultKinds() {
		if normalized == kind.String() {
			return kind, nil
		}
	}
	if kind, ok := faultAliases[normalized]; ok {
		return kind, nil
	}
	return 0, fmt.Errorf("unrecognized fault kind %q (expected one of %s)", name, strings.Join(FaultKindNames(), ", "))
}

// FaultKindNames returns the canonical names of all kinds, for help text.
func FaultKindNames() []string {
	kinds := AllFaultKinds()
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, kind.String())
	}
	return names
}
