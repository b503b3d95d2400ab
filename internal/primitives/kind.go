package primitives

import (
	"fmt"
	"strings"
)

// ProcessID is the monotonic identifier handed out by the scheduler.
type ProcessID uint64

// Kind is the closed set of process variants.
type Kind int

const (
	KindUnclassified Kind = iota
	KindMethod
	KindThread
	KindCThread
)

// String returns the lower-case kind name used in model files and snapshots.
func (k Kind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindThread:
		return "thread"
	case KindCThread:
		return "cthread"
	case KindUnclassified:
		return "unclassified"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsThread reports whether the kind resumes through the thread path
// (Thread and CThread share it).
func (k Kind) IsThread() bool {
	return k == KindThread || k == KindCThread
}

// Valid reports whether k names a kind a process may be constructed with.
func (k Kind) Valid() bool {
	switch k {
	case KindMethod, KindThread, KindCThread:
		return true
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind maps a kind name to a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "method":
		return KindMethod, nil
	case "thread":
		return KindThread, nil
	case "cthread":
		return KindCThread, nil
	case "unclassified", "":
		return KindUnclassified, nil
	}
	return KindUnclassified, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// State is the lifecycle state of a process at this layer.
type State int

const (
	StateNormal State = iota
	StateZombie
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateZombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "normal":
		*s = StateNormal
	case "zombie":
		*s = StateZombie
	default:
		return fmt.Errorf("unknown process state %q", text)
	}
	return nil
}

// MonitorSignal is delivered to a process monitor.
type MonitorSignal int

const (
	// SignalExit is sent exactly once when a monitored thread terminates.
	SignalExit MonitorSignal = iota
)

func (s MonitorSignal) String() string {
	if s == SignalExit {
		return "exit"
	}
	return "unknown"
}
