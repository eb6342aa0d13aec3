package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation  ErrorCategory = "validation"  // Invalid input
	ErrCatAuth        ErrorCategory = "auth"        // Authentication failure
	ErrCatEntitlement ErrorCategory = "entitlement" // Subscription/entitlement denied
	ErrCatState       ErrorCategory = "state"       // Run state conflict
	ErrCatExecution   ErrorCategory = "execution"   // Subprocess runtime failure
	ErrCatIO          ErrorCategory = "io"          // Filesystem failure
	ErrCatNetwork     ErrorCategory = "network"     // Remote API connectivity
	ErrCatNotFound    ErrorCategory = "not_found"   // Resource not found
	ErrCatInternal    ErrorCategory = "internal"    // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
// Every rejection that crosses the automation boundary is one of these,
// carrying a stable code that the UI can dispatch on.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Stable error codes surfaced across the UI boundary.
const (
	CodeAlreadyRunning     = "ALREADY_RUNNING"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNoSubscription     = "NO_SUBSCRIPTION"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeBrowserNotFound    = "BROWSER_NOT_FOUND"
	CodeStageFailed        = "STAGE_FAILED"
	CodeScriptNotFound     = "SCRIPT_NOT_FOUND"
	CodeRuntimeMissing     = "RUNTIME_MISSING"
	CodeSpawnFailed        = "SPAWN_FAILED"
	CodeRunFailed          = "RUN_FAILED"
	CodeInvalidConfig      = "INVALID_CONFIG"
)

// ErrAlreadyRunning creates the single-flight rejection.
func ErrAlreadyRunning() *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      CodeAlreadyRunning,
		Message:   "an automation run is already in progress",
		Retryable: false,
	}
}

// ErrUnauthorized creates an authentication error.
func ErrUnauthorized(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatAuth,
		Code:      CodeUnauthorized,
		Message:   message,
		Retryable: false,
	}
}

// ErrNoSubscription creates an entitlement error.
func ErrNoSubscription() *DomainError {
	return &DomainError{
		Category:  ErrCatEntitlement,
		Code:      CodeNoSubscription,
		Message:   "an active subscription is required to run automation",
		Retryable: false,
	}
}

// ErrServiceUnavailable creates a retry-later error for remote API failures.
func ErrServiceUnavailable() *DomainError {
	return &DomainError{
		Category:  ErrCatNetwork,
		Code:      CodeServiceUnavailable,
		Message:   "could not verify your subscription, please try again later",
		Retryable: true,
	}
}

// ErrBrowserNotFound creates the missing-browser rejection.
func ErrBrowserNotFound() *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      CodeBrowserNotFound,
		Message:   "Google Chrome is required but was not found on this system",
		Retryable: false,
	}
}

// ErrStageFailed creates a config staging error.
func ErrStageFailed(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatIO,
		Code:      CodeStageFailed,
		Message:   message,
		Retryable: true,
	}
}

// ErrScriptNotFound creates a development-mode script resolution error.
func ErrScriptNotFound(script string, candidates []string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      CodeScriptNotFound,
		Message:   fmt.Sprintf("automation script %s not found", script),
		Retryable: false,
		Details: map[string]interface{}{
			"candidates": candidates,
		},
	}
}

// ErrRuntimeMissing creates a production-mode bundled runtime error.
func ErrRuntimeMissing(path string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      CodeRuntimeMissing,
		Message:   fmt.Sprintf("bundled automation runtime not found at %s", path),
		Retryable: false,
	}
}

// ErrSpawnFailed creates a process launch error carrying the OS error.
func ErrSpawnFailed(cause error, platform, arch string) *DomainError {
	return &DomainError{
		Category:  ErrCatExecution,
		Code:      CodeSpawnFailed,
		Message:   fmt.Sprintf("failed to start automation process: %v", cause),
		Retryable: false,
		Cause:     cause,
		Details: map[string]interface{}{
			"platform": platform,
			"arch":     arch,
		},
	}
}

// ErrRunFailed creates a runtime failure for a nonzero subprocess exit.
func ErrRunFailed(exitCode int, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatExecution,
		Code:      CodeRunFailed,
		Message:   message,
		Retryable: false,
		Details: map[string]interface{}{
			"exit_code": exitCode,
		},
	}
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// GetCode extracts the stable error code, or empty for non-domain errors.
func GetCode(err error) string {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Code
	}
	return ""
}

// IsCode checks whether an error carries the given domain code.
func IsCode(err error, code string) bool {
	return GetCode(err) == code
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}
