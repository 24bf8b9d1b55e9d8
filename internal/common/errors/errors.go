// Package errors provides standardized error handling for the loan service.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed         ErrorCode = "VALIDATION_FAILED"
	ErrCodePendingApplicationExists ErrorCode = "PENDING_APPLICATION_EXISTS"
	ErrCodeNoApprovedApplication    ErrorCode = "NO_APPROVED_APPLICATION"
	ErrCodeStorageWriteFailed       ErrorCode = "STORAGE_WRITE_FAILED"

	ErrCodeInvalidPhoneNumber ErrorCode = "INVALID_PHONE_NUMBER"
	ErrCodeInvalidOTPCode     ErrorCode = "INVALID_OTP_CODE"
	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error. Message is the
// human-readable text the UI presents verbatim to the end user.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// Error Constructors
// ==========================

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Please fill in all required fields correctly",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPendingApplicationError signals that the user already has an
// application under review.
func NewPendingApplicationError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodePendingApplicationExists,
		Message:   "You already have a pending application. Please wait for review.",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoApprovedApplicationError signals an amount selection without an
// approved application on file.
func NewNoApprovedApplicationError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoApprovedApplication,
		Message:   "No approved loan application found",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageWriteError creates a retryable persistence error.
func NewStorageWriteError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageWriteFailed,
		Message:   "Failed to save your data. Please try again.",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPhoneNumberError creates a non-retryable phone validation error.
func NewInvalidPhoneNumberError(phone string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPhoneNumber,
		Message:   "Please enter a valid mobile number",
		Details:   fmt.Sprintf("phone: %s", phone),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidOTPCodeError creates a non-retryable OTP format error.
func NewInvalidOTPCodeError() *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidOTPCode,
		Message:   "Please enter a valid 6-digit OTP",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError signals an operation that requires a signed-in user.
func NewSessionNotFoundError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Please sign in first",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendError creates a retryable notification delivery error.
func NewNotificationSendError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// Utility Functions
// ==========================

// HasCode reports whether err is a StandardError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// IsRetryable reports whether err is a StandardError marked retryable.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// UserMessage returns the message the UI should surface for err. Unknown
// errors map to a generic retry prompt so raw storage errors never leak.
func UserMessage(err error) string {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Message
	}
	return "Something went wrong. Please try again."
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PENDING"):
		return "CONFLICT"
	case strings.Contains(codeStr, "NO_APPROVED"):
		return "PRECONDITION"
	case strings.Contains(codeStr, "STORAGE"):
		return "STORAGE"
	case strings.Contains(codeStr, "SESSION"):
		return "AUTH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
