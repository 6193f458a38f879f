package types

import (
	"errors"
	"net/http"
)

type ErrorCode string

func (e ErrorCode) String() string {
	return string(e)
}

const (
	// 5XX
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	ServiceUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
	// 4XX
	ValidationError      ErrorCode = "VALIDATION_ERROR"
	NotFound             ErrorCode = "NOT_FOUND"
	BadRequest           ErrorCode = "BAD_REQUEST"
	Unauthorized         ErrorCode = "UNAUTHORIZED"
	StateConflict        ErrorCode = "STATE_CONFLICT"
	TooEarly             ErrorCode = "TOO_EARLY"
	InvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
	RequestTimeout       ErrorCode = "REQUEST_TIMEOUT"
	TooManyRequests      ErrorCode = "TOO_MANY_REQUESTS"
)

// Error represents an error with an HTTP status code and an application-specific error code.
type Error struct {
	Err        error
	StatusCode int
	ErrorCode  ErrorCode
}

const UninitializedStatusCode = 0

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the provided status code, error code, and underlying error.
// If the status code is not provided (0), it defaults to http.StatusInternalServerError(500).
// If the error code is empty, it defaults to INTERNAL_SERVICE_ERROR.
func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	if statusCode == UninitializedStatusCode {
		statusCode = http.StatusInternalServerError
	}
	if errorCode == "" {
		errorCode = InternalServiceError
	}
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Err:        err,
	}
}

func NewErrorWithMsg(statusCode int, errorCode ErrorCode, msg string) *Error {
	return NewError(statusCode, errorCode, errors.New(msg))
}

func NewInternalServiceError(err error) *Error {
	return &Error{
		StatusCode: http.StatusInternalServerError,
		ErrorCode:  InternalServiceError,
		Err:        err,
	}
}

// The constructors below cover the engine's error kinds. Each engine failure is
// one of them; the status code is what the API layer answers with.

func NewValidationError(msg string) *Error {
	return NewErrorWithMsg(http.StatusBadRequest, ValidationError, msg)
}

func NewUnauthorizedError(msg string) *Error {
	return NewErrorWithMsg(http.StatusForbidden, Unauthorized, msg)
}

func NewStateConflictError(msg string) *Error {
	return NewErrorWithMsg(http.StatusConflict, StateConflict, msg)
}

func NewTooEarlyError(msg string) *Error {
	return NewErrorWithMsg(http.StatusTooEarly, TooEarly, msg)
}

func NewInvalidConfigurationError(msg string) *Error {
	return NewErrorWithMsg(http.StatusBadRequest, InvalidConfiguration, msg)
}

func NewServiceUnavailableError(msg string) *Error {
	return NewErrorWithMsg(http.StatusServiceUnavailable, ServiceUnavailable, msg)
}

func NewTooManyRequestsError(msg string) *Error {
	return NewErrorWithMsg(http.StatusTooManyRequests, TooManyRequests, msg)
}

// ErrorCodeOf returns the ErrorCode carried by err, or an empty code when err
// is not a *Error.
func ErrorCodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrorCode
	}
	return ""
}
