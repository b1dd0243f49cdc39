package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form RM-<AREA>-<NNNN>; the trailing digits carry the
// HTTP status family (4040 = not found, 4001 = validation, ...).
type DomainError struct {
	Code    string // Error code (e.g., "RM-REC-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Record Errors (REC)
// ============================================================================

var (
	// ErrRecordNotFound indicates no record exists with the given id.
	ErrRecordNotFound = NewDomainError("RM-REC-4040", "record not found")

	// ErrRecordValidation indicates record fields failed validation.
	ErrRecordValidation = NewDomainError("RM-REC-4001", "record validation failed")

	// ErrRecordIDMismatch indicates the path id and body id of an update differ.
	ErrRecordIDMismatch = NewDomainError("RM-REC-4002", "id mismatch")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrAPIKeyMissing indicates no API key was provided.
	ErrAPIKeyMissing = NewDomainError("RM-AUTH-4010", "api key not provided")

	// ErrAPIKeyInvalid indicates the API key is invalid or does not exist.
	ErrAPIKeyInvalid = NewDomainError("RM-AUTH-4011", "invalid api key")

	// ErrAPIKeyDisabled indicates the API key has been disabled.
	ErrAPIKeyDisabled = NewDomainError("RM-AUTH-4012", "api key disabled")

	// ErrPermissionDenied indicates insufficient permissions.
	ErrPermissionDenied = NewDomainError("RM-AUTH-4030", "permission denied")

	// ErrIPNotAllowed indicates the IP is not in the allowlist.
	ErrIPNotAllowed = NewDomainError("RM-AUTH-4031", "ip not in allowlist")

	// ErrAPIKeyValidation indicates API key validation failed.
	ErrAPIKeyValidation = NewDomainError("RM-AUTH-4001", "api key validation failed")

	// ErrAPIKeyNotFound indicates the API key was not found.
	ErrAPIKeyNotFound = NewDomainError("RM-AUTH-4040", "api key not found")

	// ErrAPIKeyConflict indicates the API key ID already exists.
	ErrAPIKeyConflict = NewDomainError("RM-AUTH-4090", "api key id conflict")

	// ErrAPIKeyRateLimited indicates the key exceeded its request rate.
	ErrAPIKeyRateLimited = NewDomainError("RM-AUTH-4290", "rate limit exceeded")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("RM-SYS-5000", "internal server error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("RM-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("RM-SYS-4290", "too many requests")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("RM-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("RM-ARG-1002", "missing required argument")
)
