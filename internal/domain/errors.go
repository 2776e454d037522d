package domain

import (
	"errors"
	"fmt"
)

// Error codes for the failure taxonomy. Slot-validation failures, unresolved
// conditions mid-dialogue and safety vetoes are not errors: the first two
// re-prompt (or clarify), the last is a deliberate terminal outcome carried
// inside the Recommendation.
const (
	ErrDatasetUnavailable = "DATASET_UNAVAILABLE"
	ErrUnknownCondition   = "UNKNOWN_CONDITION"
	ErrInvalidInput       = "INVALID_INPUT"
	ErrNotConfigured      = "NOT_CONFIGURED"
	ErrProviderError      = "PROVIDER_ERROR"
)

// TriageError is the typed error returned across package boundaries so
// callers can render deterministically instead of matching error strings.
type TriageError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *TriageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewTriageError creates a TriageError with the given code and message.
func NewTriageError(code, message string) *TriageError {
	return &TriageError{Code: code, Message: message}
}

// NewTriageErrorf creates a TriageError with a formatted message.
func NewTriageErrorf(code, format string, args ...any) *TriageError {
	return &TriageError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode extracts the taxonomy code from an error chain, or "" when the
// error is not a TriageError.
func ErrorCode(err error) string {
	var te *TriageError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
