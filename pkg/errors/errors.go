package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType classifies an AppError. The type alone decides the HTTP status.
type ErrorType string

const (
	// Caller mistakes
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeRateLimit    ErrorType = "RATE_LIMIT"

	// Our side
	ErrorTypeTimeout     ErrorType = "TIMEOUT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
	ErrorTypeDatabase    ErrorType = "DATABASE"
	ErrorTypeInternal    ErrorType = "INTERNAL"
)

// Status maps the type onto an HTTP status code.
func (t ErrorType) Status() int {
	switch t {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeForbidden:
		return http.StatusForbidden
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// AppError is the error every layer returns once it knows what went wrong.
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`

	stack string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Status is the HTTP status for the error's type.
func (e *AppError) Status() int { return e.Type.Status() }

// WithDetails attaches structured context for the response body.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause records the lower-level error.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func newError(t ErrorType, message string, cause error) *AppError {
	return &AppError{Type: t, Message: message, Cause: cause, stack: callers()}
}

// callers renders the stack above the constructor that called newError.
func callers() string {
	var pcs [32]uintptr
	n := runtime.Callers(4, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}

func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, message, nil)
}

// NewNotFoundError reports that resource does not exist or is not visible.
func NewNotFoundError(resource string) *AppError {
	return newError(ErrorTypeNotFound, resource+" not found", nil)
}

func NewConflictError(message string) *AppError {
	return newError(ErrorTypeConflict, message, nil)
}

func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(ErrorTypeUnauthorized, message, nil)
}

func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return newError(ErrorTypeForbidden, message, nil)
}

func NewInternalError(message string) *AppError {
	return newError(ErrorTypeInternal, message, nil)
}

// NewTimeoutError reports that operation ran out of time.
func NewTimeoutError(operation string) *AppError {
	return newError(ErrorTypeTimeout, fmt.Sprintf("%s timed out", operation), nil)
}

func NewRateLimitError(limit int, window string) *AppError {
	return newError(ErrorTypeRateLimit, fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, window), nil)
}

// NewUnavailableError reports a dependency that cannot currently serve requests,
// such as a store behind an open circuit breaker.
func NewUnavailableError(service string, cause error) *AppError {
	return newError(ErrorTypeUnavailable, fmt.Sprintf("%s is unavailable", service), cause)
}

func NewDatabaseError(operation string, err error) *AppError {
	return newError(ErrorTypeDatabase, fmt.Sprintf("%s failed", operation), err)
}

// GetAppError returns the first AppError in err's chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func IsAppError(err error) bool { return GetAppError(err) != nil }

// IsType reports whether err's chain holds an AppError of type t.
func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

func IsNotFound(err error) bool    { return IsType(err, ErrorTypeNotFound) }
func IsValidation(err error) bool  { return IsType(err, ErrorTypeValidation) }
func IsUnavailable(err error) bool { return IsType(err, ErrorTypeUnavailable) }
func IsConflict(err error) bool    { return IsType(err, ErrorTypeConflict) }
func IsTimeout(err error) bool     { return IsType(err, ErrorTypeTimeout) }

// Wrap prefixes an AppError's message in place, keeping its type. Any other
// error becomes INTERNAL with err as the cause.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = message + ": " + appErr.Message
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Status()
	}
	return http.StatusInternalServerError
}
