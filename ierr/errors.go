// Package ierr defines the sentinel error kinds shared by every
// instrumentall component, so callers can branch with errors.Is
// regardless of which package raised the error.
package ierr

import "errors"

var (
	// ErrTypeMismatch is raised on a wrong typed access on a data cell or port.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNotBound is raised when an operation assumes a bound source/target
	// but none is set.
	ErrNotBound = errors.New("not bound")

	// ErrInvalidState is raised when an operation runs at the wrong
	// lifecycle point, e.g. reading from a cell that was never reserved.
	ErrInvalidState = errors.New("invalid state")

	// ErrExecutionAborted is raised when cancellation is observed inside
	// a blocking acquisition or a publish.
	ErrExecutionAborted = errors.New("execution aborted")

	// ErrNameConflict is raised when a module/proxy/logger name is
	// already registered.
	ErrNameConflict = errors.New("name conflict")

	// ErrBug signals an internal invariant violation. Callers that
	// observe it should treat the process as no longer trustworthy.
	ErrBug = errors.New("internal invariant violated")

	// ErrAttributeMergeDisallowed is raised by Attribute.Merge when the
	// active sequence stacks of the two operands are neither equal nor
	// one a suffix of the other (spec.md A3, the partially-unimplemented
	// DataAttribute::operator+= in the original source).
	ErrAttributeMergeDisallowed = errors.New("attribute merge disallowed: active sequence stacks diverge")
)
