// Package errors defines the application error taxonomy and the central
// handler that turns failures into user-visible messages.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

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

// NewValidationError covers malformed user input: bad magnitude strings,
// unknown ledger fields, malformed thread names.
func NewValidationError(userMessage string, cause error) *AppError {
	message := userMessage
	if cause != nil {
		message = cause.Error()
	}

	return &AppError{
		Code:        "E100",
		Message:     message,
		UserMessage: userMessage,
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

// NewDatabaseError covers ledger store failures.
func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("ledger error: %s", underlyingMsg),
		UserMessage: "A temporary problem occurred. Please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewPlatformError covers chat-platform collaborator failures (forbidden or
// transport) mid-workflow.
func NewPlatformError(step string, cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("platform failure during %s", step),
		UserMessage: fmt.Sprintf("The %s step failed. Completed steps were not rolled back; please finish manually or retry the command.", step),
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewWorkflowError covers order workflow precondition failures.
func NewWorkflowError(userMessage string, cause error) *AppError {
	message := userMessage
	if cause != nil {
		message = cause.Error()
	}

	return &AppError{
		Code:        "E400",
		Message:     message,
		UserMessage: userMessage,
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       cause,
	}
}

// NewRateLimitError reports throttled commands.
func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}
