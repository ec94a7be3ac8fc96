package helpers

import (
	"errors"
	"fmt"
	"time"

	"ipo-wizard/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type WizardError struct {
	Message string
	Cause   error
}

func (e *WizardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *WizardError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As
type ConfigurationError struct{ WizardError }
type NetworkError struct{ WizardError }
type DatabaseError struct{ WizardError }
type SubmissionError struct{ WizardError }

// FatalError means the wizard cannot start or continue at all.
type FatalError struct{ WizardError }

// ValidationError is recoverable and never corrupts wizard state.
// Field names the input the message belongs to, when there is one.
type ValidationError struct {
	WizardError
	Field string
}

// -----------------------------------------------------------------------------

var (
	ErrNotFound          = errors.New("not found")
	ErrNoClientsSelected = errors.New("no clients selected")
	ErrOperationInFlight = errors.New("another submission or draft save is in progress")
	ErrSessionClosed     = errors.New("session is no longer editable")
)

// -----------------------------------------------------------------------------

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{WizardError: WizardError{Message: fmt.Sprintf(format, args...)}, Field: field}
}

func NewSubmissionError(message string, cause error) *SubmissionError {
	return &SubmissionError{WizardError{Message: message, Cause: cause}}
}

func NewFatalError(message string, cause error) *FatalError {
	return &FatalError{WizardError{Message: message, Cause: cause}}
}

func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{WizardError{Message: message, Cause: cause}}
}

func NewNetworkError(message string, cause error) *NetworkError {
	return &NetworkError{WizardError{Message: message, Cause: cause}}
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{WizardError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

type ErrorHandler struct {
	Logger     *logger.Logger
	ErrorCount int
	BaseDelay  time.Duration
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{
		Logger:    log,
		BaseDelay: time.Second,
	}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.ErrorCount = 0
}

// -----------------------------------------------------------------------------

// ExecuteWithRetry runs fn up to maxRetries times with exponential backoff.
// Only idempotent infrastructure operations belong here; application
// submissions are never retried automatically.
func (e *ErrorHandler) ExecuteWithRetry(operation string, fn func() error, maxRetries int) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			if e.ErrorCount > 0 {
				e.ErrorCount--
			}
			return nil
		}
		lastErr = err

		if attempt == maxRetries-1 {
			break
		}

		e.Logger.Warning("%s failed (attempt %d/%d): %v", operation, attempt+1, maxRetries, err)
		time.Sleep(e.BaseDelay * time.Duration(1<<attempt))
	}

	e.ErrorCount++
	e.Logger.Error("%s failed after %d attempts: %v", operation, maxRetries, lastErr)
	return &WizardError{Message: fmt.Sprintf("%s failed after %d attempts", operation, maxRetries), Cause: lastErr}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) Handle(err error, context string) {
	if err != nil {
		e.Logger.Error("Error in %s: %v", context, err)
	}
}
