package apperror

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Services wrap these; the handler layer maps them to
// HTTP status codes with errors.Is. Internal components never see status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnavailable        = errors.New("service unavailable")
	ErrGeneration         = errors.New("generation failed")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthenticated is returned when no resolvable session backs a request.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "authentication required",
	}
}

// InvalidCredentials carries one uniform message regardless of whether the
// email or the password was wrong, so callers cannot enumerate accounts.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid email or password",
	}
}

// Unavailable marks an upstream collaborator failure (missing credential,
// non-success status, timeout). HTTP handlers map this to 503.
func Unavailable(service, message string) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: fmt.Sprintf("%s: %s", service, message),
	}
}

// Generation marks a text-generation failure that aborts lesson synthesis.
// HTTP handlers map this to 502.
func Generation(message string) *AppError {
	return &AppError{
		Err:     ErrGeneration,
		Message: message,
	}
}
