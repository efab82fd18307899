package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeCredentialMismatch indicates a password or password-hash mismatch.
	ErrCodeCredentialMismatch ErrorCode = "credential_mismatch"
	// ErrCodeTokenMalformed indicates a bearer token that could not be parsed.
	ErrCodeTokenMalformed ErrorCode = "token_malformed"
	// ErrCodeTokenExpired indicates a bearer token outside its validity window.
	ErrCodeTokenExpired ErrorCode = "token_expired"
	// ErrCodeTokenSignature indicates a bearer token with an invalid signature.
	ErrCodeTokenSignature ErrorCode = "token_signature"
	// ErrCodeTokenClaim indicates a bearer token with missing or mismatched claims.
	ErrCodeTokenClaim ErrorCode = "token_claim"
	// ErrCodeUnauthorized indicates a missing or unparsable authorization header.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Fields maps field names to rule-violation messages (validation errors).
	// All violated rules are collected here, not just the first one.
	Fields map[string]string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		// Deterministic order for log output and assertions.
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		msg = msg + " (" + strings.Join(parts, "; ") + ")"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

// Validation creates a new Validation error carrying the collected
// field-level rule violations.
func Validation(message string, fields map[string]string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Fields:  fields,
	}
}

// CredentialMismatch creates a new CredentialMismatch error.
func CredentialMismatch(message string) *AppError {
	return &AppError{
		Code:    ErrCodeCredentialMismatch,
		Message: message,
	}
}

// Token creates a new token error of the given kind. The kind must be one of
// the four ErrCodeToken* codes; anything else falls back to ErrCodeTokenMalformed.
func Token(kind ErrorCode, message string, cause error) *AppError {
	switch kind {
	case ErrCodeTokenMalformed, ErrCodeTokenExpired, ErrCodeTokenSignature, ErrCodeTokenClaim:
	default:
		kind = ErrCodeTokenMalformed
	}
	return &AppError{
		Code:    kind,
		Message: message,
		Cause:   cause,
	}
}

// Unauthorized creates a new Unauthorized error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsCredentialMismatch checks if an error is a CredentialMismatch error.
func IsCredentialMismatch(err error) bool {
	return isCode(err, ErrCodeCredentialMismatch)
}

// IsToken checks if an error is any of the four token error kinds.
func IsToken(err error) bool {
	return isCode(err, ErrCodeTokenMalformed) ||
		isCode(err, ErrCodeTokenExpired) ||
		isCode(err, ErrCodeTokenSignature) ||
		isCode(err, ErrCodeTokenClaim)
}

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool {
	return isCode(err, ErrCodeUnauthorized)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetFields returns the validation field map from an error, or nil if not an
// AppError or no fields are set.
func GetFields(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
