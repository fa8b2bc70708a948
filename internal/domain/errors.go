// Package domain contains the core domain models and types.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidAnswer indicates an answer outside the A..D domain.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrRecordNotFound indicates no diagnostic exists for the given id.
	ErrRecordNotFound = errors.New("diagnostic record not found")

	// ErrRender indicates the document renderer failed.
	ErrRender = errors.New("document rendering failed")

	// ErrCollaboratorUnavailable indicates an external service is not reachable.
	ErrCollaboratorUnavailable = errors.New("external service unavailable")

	// ErrCollaboratorTimeout indicates an external service did not respond in time.
	ErrCollaboratorTimeout = errors.New("external service timeout")

	// ErrInvalidEnrichment indicates the enrichment text failed validation.
	ErrInvalidEnrichment = errors.New("invalid enrichment response")

	// ErrRateLimited indicates too many failed login attempts from one address.
	ErrRateLimited = errors.New("too many attempts")

	// ErrWrongPassword indicates the submitted admin credential did not match.
	ErrWrongPassword = errors.New("wrong password")

	// ErrEmptyPassword indicates the login request carried no credential.
	ErrEmptyPassword = errors.New("empty password")

	// ErrSessionInvalid indicates a missing, unknown or expired admin session.
	ErrSessionInvalid = errors.New("invalid or expired session")

	// ErrAdminNotConfigured indicates no admin credential is configured.
	ErrAdminNotConfigured = errors.New("admin password not configured")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// OpError wraps an error with additional context.
type OpError struct {
	// Op is the operation that failed.
	Op string

	// Err is the underlying error.
	Err error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Err
}

// WrapError creates a new OpError with context.
func WrapError(op string, err error, retryable bool) *OpError {
	return &OpError{
		Op:        op,
		Err:       err,
		Retryable: retryable,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Retryable
	}
	return false
}
