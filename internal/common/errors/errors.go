// Package errors provides standardized error handling for the query engine.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Data errors: aggregation could not read the financial records.
	// Recovered locally with a zero-valued snapshot, never surfaced.
	ErrCodeDataAccessFailed ErrorCode = "DATA_ACCESS_FAILED"

	// Remote transport errors: network failure or 5xx from the generation
	// endpoint. Retried, then downgraded to local fallback.
	ErrCodeRemoteUnavailable ErrorCode = "REMOTE_UNAVAILABLE"
	ErrCodeRemoteTimeout     ErrorCode = "REMOTE_TIMEOUT"

	// Remote validation errors: malformed or missing response body.
	// Fatal for the attempt, immediate local fallback, no retry.
	ErrCodeRemoteBadResponse ErrorCode = "REMOTE_BAD_RESPONSE"

	// Exhaustion: both remote and local generation failed. The only code
	// that ever reaches the caller, behind a generic message.
	ErrCodeGenerationExhausted ErrorCode = "GENERATION_EXHAUSTED"

	ErrCodeInvalidQuestion ErrorCode = "INVALID_QUESTION"
)

// StandardError represents a structured application error.
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
// 2. Error Constructors
// ==========================

// NewDataAccessFailedError creates a non-retryable data access error. The
// aggregator recovers from it with a zero snapshot instead of retrying.
func NewDataAccessFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataAccessFailed,
		Message:   "Failed to read financial records",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteUnavailableError creates a retryable remote transport error.
func NewRemoteUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteUnavailable,
		Message:   "Remote generation endpoint unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteTimeoutError creates a retryable remote timeout error.
func NewRemoteTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteTimeout,
		Message:   "Remote generation endpoint timeout",
		Details:   "call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteBadResponseError creates a non-retryable validation error for a
// malformed generation response.
func NewRemoteBadResponseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteBadResponse,
		Message:   "Remote generation endpoint returned a malformed response",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationExhaustedError creates the single caller-visible error. The
// message deliberately carries no detail: raw failures must not leak into a
// chat transcript.
func NewGenerationExhaustedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationExhausted,
		Message:   "unable to process your request",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidQuestionError creates a non-retryable input validation error.
func NewInvalidQuestionError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQuestion,
		Message:   "Question text is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the retry budget for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRemoteUnavailable:
		return 2
	case ErrCodeRemoteTimeout:
		return 1
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATA"):
		return "DATA"
	case strings.Contains(codeStr, "REMOTE"):
		return "REMOTE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
