package primitives

import (
	"errors"
	"fmt"
)

// Sentinel errors for the simulation kernel.
var (
	// ErrReferencesHeld is the cause of an invariant violation when a process
	// is deleted while a holder still references it.
	ErrReferencesHeld = errors.New("process still has references")

	// ErrUnknownKind is returned (or panicked, during dispatch) for a kind
	// outside the closed set.
	ErrUnknownKind = errors.New("unknown process kind")

	// ErrKindMismatch is returned when an operation is not defined for the
	// process kind, such as attaching a monitor to a method.
	ErrKindMismatch = errors.New("operation not valid for process kind")

	// ErrNotFound is returned when an object lookup fails.
	ErrNotFound = errors.New("object not found")

	// ErrDuplicateName is returned when an object name is already registered.
	ErrDuplicateName = errors.New("object name already registered")

	// ErrZombie is returned when an operation requires a live process.
	ErrZombie = errors.New("process has terminated")

	// ErrReentrantDelete is the cause of an invariant violation when the last
	// reference is dropped from inside the process's own disconnect.
	ErrReentrantDelete = errors.New("process deleted while disconnecting")

	// ErrOverRelease is the cause of an invariant violation when a process
	// is released more times than it was acquired.
	ErrOverRelease = errors.New("process released more times than acquired")

	// ErrUncomparableMonitor is returned when a monitor cannot be matched
	// for removal because its dynamic type is not comparable.
	ErrUncomparableMonitor = errors.New("monitor type is not comparable")

	// ErrNotRunnable is returned by the delta kernel for operations against
	// a process that is currently executing.
	ErrNotRunnable = errors.New("process is the current activation")

	// ErrInvalidConfig is returned when a model configuration fails validation.
	ErrInvalidConfig = errors.New("invalid model configuration")
)

// InvariantError describes a programming-invariant violation. The kernel
// panics with a *InvariantError; it is never returned as an ordinary error.
type InvariantError struct {
	// Op is the operation that detected the violation.
	Op string

	// Process is the full name of the process involved, if any.
	Process string

	// Err is the underlying sentinel.
	Err error
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.Process == "" {
		return fmt.Sprintf("invariant violation in %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("invariant violation in %s (process %q): %v", e.Op, e.Process, e.Err)
}

// Unwrap returns the underlying error.
func (e *InvariantError) Unwrap() error {
	return e.Err
}

// Violation panics with an InvariantError.
func Violation(op, process string, err error) {
	panic(&InvariantError{Op: op, Process: process, Err: err})
}
