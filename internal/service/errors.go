package service

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/vedran77/minilid/internal/domain"
	"github.com/vedran77/minilid/internal/identity"
	"github.com/vedran77/minilid/pkg/validator"
)

// Error kinds. Every error returned by this package is, or wraps, one of these
// unless it is a storage failure.
var (
	ErrUnauthenticated    = identity.ErrUnauthenticated
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrChannelClosed      = errors.New("channel closed")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrAlreadyApplied     = errors.New("already applied to this job")
	ErrJobNotFound        = errors.New("job not found")
	ErrRateLimited        = errors.New("rate limited")
)

// TransitionError names the status an application was in and the one requested.
type TransitionError struct {
	From domain.ApplicationStatus
	To   domain.ApplicationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ValidationError carries per-field messages for malformed input.
type ValidationError struct {
	Fields validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", map[string]string(e.Fields))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	errs := make(validator.ValidationErrors)
	errs.Add(field, message)
	return &ValidationError{Fields: errs}
}
