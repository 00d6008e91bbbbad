package common

import (
	"errors"
	"fmt"
)

// Stable error codes surfaced to callers.
const (
	CodeAuthorization     = "AUTHORIZATION"
	CodeNotFound          = "NOT_FOUND"
	CodeConfiguration     = "CONFIGURATION"
	CodeFileAccess        = "FILE_ACCESS"
	CodeTransport         = "TRANSPORT_FAILURE"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
	CodePersistence       = "PERSISTENCE"
	CodeAlreadyProcessing = "ALREADY_PROCESSING"
	CodeInvalidArgument   = "INVALID_ARGUMENT"
)

// AppError represents application-specific errors.
// Secondary holds a failure raised while cleaning up after Cause; it is
// reported separately and never replaces the primary error.
type AppError struct {
	Code      string
	Message   string
	Cause     error
	Secondary error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrConflict     = errors.New("conflicting state")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func AuthorizationError(message string) *AppError {
	return NewAppError(CodeAuthorization, message, ErrUnauthorized)
}

func NotFoundError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrNotFound
	}
	return NewAppError(CodeNotFound, message, cause)
}

func ConfigurationError(message string) *AppError {
	return NewAppError(CodeConfiguration, message, nil)
}

func FileAccessError(message string, cause error) *AppError {
	return NewAppError(CodeFileAccess, message, cause)
}

func TransportFailure(message string, cause error) *AppError {
	return NewAppError(CodeTransport, message, cause)
}

func MalformedResponseError(message string, cause error) *AppError {
	return NewAppError(CodeMalformedResponse, message, cause)
}

func PersistenceError(message string, cause error) *AppError {
	return NewAppError(CodePersistence, message, cause)
}

func AlreadyProcessingError(message string) *AppError {
	return NewAppError(CodeAlreadyProcessing, message, ErrConflict)
}

func InvalidArgumentError(message string) *AppError {
	return NewAppError(CodeInvalidArgument, message, ErrInvalidInput)
}

func InvalidArgumentErrorf(format string, args ...interface{}) *AppError {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// WithSecondary records a cleanup failure on err without changing what err reports.
// Non-AppError primaries are wrapped as internal failures first.
func WithSecondary(err, secondary error) error {
	if err == nil || secondary == nil {
		return err
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		appErr.Secondary = secondary
		return err
	}
	return &AppError{Code: "INTERNAL", Message: "unexpected failure", Cause: err, Secondary: secondary}
}

// SecondaryOf returns the suppressed cleanup failure attached to err, if any.
func SecondaryOf(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Secondary
	}
	return nil
}
