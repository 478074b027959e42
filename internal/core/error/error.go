package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage is used when a key does not exist.
	RedisNotFoundMessage = "redis key not found"
	// QdrantErrorMessage describes vector index failures.
	QdrantErrorMessage = "vector index operation failed"
	// PostgresErrorMessage describes structured store failures.
	PostgresErrorMessage = "structured store operation failed"
	// UpstreamErrorMessage describes failures of model providers (chat, embedding, registry).
	UpstreamErrorMessage = "upstream provider failed"
	// ValidationErrorMessage describes contract violations by the caller.
	ValidationErrorMessage = "invalid input"
)

var (
	// ErrEmptyGeneration is returned when a completion produced no usable content.
	ErrEmptyGeneration = errors.New("empty generation")
	// ErrMalformedOutput is returned when a structured completion cannot be decoded.
	ErrMalformedOutput = errors.New("malformed model output")
	// ErrValidation marks programmer-facing contract violations.
	ErrValidation = errors.New("validation failed")
	// ErrSessionLocked is returned when a session lock cannot be acquired in time.
	ErrSessionLocked = errors.New("session is locked by another turn")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Validation builds a programmer-facing validation error that still matches ErrValidation.
func Validation(format string, args ...any) error {
	return New(fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...)), http.StatusBadRequest, ValidationErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500 when none is attached.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
