package service

import (
	"errors"
	"fmt"

	"github.com/fieldops/backoffice-api/internal/repository"
	"gorm.io/gorm"
)

// Error kinds. Handlers map each kind to one HTTP status.
var (
	// ErrUnauthenticated is returned when no valid identity is present
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when the actor's role or scope does not allow the action
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned when input is malformed or violates a business rule
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidStateTransition is returned when a job is not in the status an operation requires
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUpstreamUnavailable is returned when the database cannot be reached
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Error carries a kind plus a message that is safe to show to the caller.
// errors.Is matches both the kind and the wrapped cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...interface{}) *Error {
	return newError(ErrForbidden, format, args...)
}

func validation(format string, args ...interface{}) *Error {
	return newError(ErrValidation, format, args...)
}

func notFound(entity string) *Error {
	return newError(ErrNotFound, "%s not found", entity)
}

func invalidState(format string, args ...interface{}) *Error {
	return newError(ErrInvalidStateTransition, format, args...)
}

func conflict(format string, args ...interface{}) *Error {
	return newError(ErrConflict, format, args...)
}

// translateError turns repository errors into typed service errors. Errors
// that are already typed pass through; anything else is returned unchanged
// and surfaces as an internal error.
func translateError(err error, entity string) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: ErrNotFound, Message: entity + " not found", Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: ErrConflict, Message: entity + " already exists", Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &Error{Kind: ErrValidation, Message: entity + " references a missing record", Err: err}
	case repository.IsUnavailable(err):
		return &Error{Kind: ErrUpstreamUnavailable, Message: "Database is unavailable", Err: err}
	}
	return err
}
