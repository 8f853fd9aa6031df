package billforge

import (
	"errors"
	"fmt"
)

// Sentinel errors for common template engine failure conditions.
var (
	ErrProtectedElement = errors.New("billforge: element is protected and cannot be deleted")
	ErrUnknownElement   = errors.New("billforge: no element with that id")
	ErrNoSelection      = errors.New("billforge: no element is selected")
	ErrInvalidState     = errors.New("billforge: operation not valid in current designer state")
	ErrTemplateNotFound = errors.New("billforge: template not found")
	ErrVersionNotFound  = errors.New("billforge: template version not found")
	ErrNoTransport      = errors.New("billforge: publisher has no transport configured")
)

// Error represents an error that occurred during a specific engine operation.
// It wraps an underlying error and includes the operation name for context.
type Error struct {
	Op  string // operation name, e.g. "Delete", "Render"
	Err error  // underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("billforge.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("billforge.%s: unknown error", e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}
