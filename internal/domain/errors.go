package domain

import (
	"errors"
	"fmt"
)

// Application error codes
const (
	EINVALID      = "invalid"         // Invalid input or validation failure
	EUNAUTHORIZED = "unauthorized"    // Authentication required
	EFORBIDDEN    = "forbidden"       // Permission denied
	ENOTFOUND     = "not_found"       // Resource not found
	ECONFLICT     = "conflict"        // Resource conflict (e.g., duplicate)
	EQUOTA        = "quota_exceeded"  // Team-slot quota reached
	ECOOLDOWN     = "cooldown_active" // Team slot still inside its cooldown window
	ETOOLARGE     = "too_large"       // Request entity too large
	ERATELIMIT    = "rate_limit"      // Rate limit exceeded
	EPAYMENT      = "payment"         // Payment required (no credits left)
	EUNAVAILABLE  = "unavailable"     // Store or upstream unreachable, retryable
	EINTERNAL     = "internal"        // Internal server error
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "TeamSlotService.EnsureSlot")
	Message string // Human-readable message
	Err     error  // Underlying error

	// Details carries the numbers a client needs to render actionable
	// guidance (limit/current for quota, days_remaining for cooldown).
	Details map[string]int
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code, op, message string) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		// For internal errors, return generic message
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// ErrorDetails returns the structured details of the error, if any.
func ErrorDetails(err error) map[string]int {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// IsDomainOutcome reports whether err is an expected, user-facing rule
// outcome rather than a failure worth logging as an error.
func IsDomainOutcome(err error) bool {
	switch ErrorCode(err) {
	case EQUOTA, ECOOLDOWN, EPAYMENT:
		return true
	}
	return false
}

// IsStale reports whether err points at a stale client reference. Clients
// should refresh their view instead of alarming the user.
func IsStale(err error) bool {
	switch ErrorCode(err) {
	case ENOTFOUND, EFORBIDDEN:
		return true
	}
	return false
}

// Convenience constructors for common error types

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s with ID %q not found", resource, id),
	}
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Unauthorized creates an authentication error.
func Unauthorized(op, message string) *Error {
	return &Error{
		Code:    EUNAUTHORIZED,
		Op:      op,
		Message: message,
	}
}

// Forbidden creates a permission error.
func Forbidden(op, message string) *Error {
	return &Error{
		Code:    EFORBIDDEN,
		Op:      op,
		Message: message,
	}
}

// Conflict creates a conflict error.
func Conflict(op, message string) *Error {
	return &Error{
		Code:    ECONFLICT,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Unavailable creates a retryable infrastructure error (store or upstream down).
func Unavailable(err error, op, message string) *Error {
	return &Error{
		Code:    EUNAVAILABLE,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// RateLimit creates a rate limit error.
func RateLimit(op string) *Error {
	return &Error{
		Code:    ERATELIMIT,
		Op:      op,
		Message: "Too many requests. Please try again later.",
	}
}

// QuotaExceeded creates the error returned when a new team slot would exceed
// the owner's entitlement.
func QuotaExceeded(op string, current, limit int) *Error {
	return &Error{
		Code:    EQUOTA,
		Op:      op,
		Message: fmt.Sprintf("Your plan allows %d team(s) and you already use %d. Remove a team or upgrade to add another.", limit, current),
		Details: map[string]int{
			"limit":   limit,
			"current": current,
		},
	}
}

// CooldownActive creates the error returned when a team slot is changed
// before its cooldown has elapsed.
func CooldownActive(op string, daysRemaining int) *Error {
	return &Error{
		Code:    ECOOLDOWN,
		Op:      op,
		Message: fmt.Sprintf("This team can be changed again in %d day(s).", daysRemaining),
		Details: map[string]int{
			"days_remaining": daysRemaining,
		},
	}
}

// InsufficientCredits creates the error returned when a credit-consuming
// action is attempted with an empty balance.
func InsufficientCredits(op string) *Error {
	return &Error{
		Code:    EPAYMENT,
		Op:      op,
		Message: "No credits remaining. Upgrade your plan to continue exporting.",
	}
}

// ValidationError represents field-level validation errors.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed", e.Op)
}

// NewValidationError creates a new validation error with the first field error.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{
		Op: op,
		Fields: map[string]string{
			field: message,
		},
	}
}

// AddFieldError adds a field error to an existing validation error.
// If err is not a ValidationError, returns a new one.
func AddFieldError(err error, field, message string) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return NewValidationError("", field, message)
}
