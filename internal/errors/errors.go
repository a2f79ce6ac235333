package errors

import (
	"errors"
	"fmt"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries the error taxonomy the UI layer routes on: validation
// problems never reach the remote store, authorization denials trigger a
// re-prompt, remote failures surface through shared state.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewValidationError marks input rejected before any remote call.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "W100",
		Message:     msg,
		UserMessage: msg,
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewAuthorizationError marks a sensitive action that was not confirmed.
// Distinct from validation so the caller can re-prompt instead of showing
// a generic failure.
func NewAuthorizationError(msg string) *AppError {
	return &AppError{
		Code:        "W200",
		Message:     msg,
		UserMessage: "Authorization required. Please confirm to continue.",
		Severity:    SeverityLow,
		Retryable:   true,
		cause:       nil,
	}
}

// NewRemoteError wraps a failed read or write against the remote store.
func NewRemoteError(operation string, cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "W300",
		Message:     fmt.Sprintf("remote store error during %s: %s", operation, underlyingMsg),
		UserMessage: "Something went wrong talking to the server. Please try again.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewSessionError marks operations attempted without an active session.
func NewSessionError(msg string) *AppError {
	return &AppError{
		Code:        "W400",
		Message:     msg,
		UserMessage: "Your session has expired. Please log in again.",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       nil,
	}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return hasCode(err, "W100")
}

// IsAuthorization reports whether err is an authorization denial.
func IsAuthorization(err error) bool {
	return hasCode(err, "W200")
}

// IsRemote reports whether err is a remote store failure.
func IsRemote(err error) bool {
	return hasCode(err, "W300")
}

func hasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr != nil && appErr.Code == code
}
