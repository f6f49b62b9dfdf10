package tasks

import (
	"fmt"

	"github.com/turbovets/taskboard/internal/platform/httpx"
)

var (
	// ErrNotFound signals that the referenced task does not exist.
	ErrNotFound = fmt.Errorf("task %w", httpx.ErrNotFound)
	// ErrForbidden signals a failed permission or ownership check.
	ErrForbidden = fmt.Errorf("task access %w", httpx.ErrForbidden)
	// ErrInvalid signals malformed task input.
	ErrInvalid = fmt.Errorf("task %w", httpx.ErrValidation)
)

func denied(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrForbidden}, args...)...)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}
