package models

import "errors"

// Error kinds surfaced to callers. Wrap them with fmt.Errorf("%w: ...") and
// test with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyCompleted  = errors.New("attempt already completed")
	ErrInvalidTransition = errors.New("invalid attempt state transition")
	ErrValidation        = errors.New("validation error")
)
