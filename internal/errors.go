package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies client failures so callers can pick a retry policy
type ErrorType int

const (
	ErrAuthFailed ErrorType = iota
	ErrCancelled
	ErrHTTPStatus
	ErrDecode
	ErrEmptyResult
	ErrSecretNotFound
	ErrInvalidInput
	ErrNetwork
	ErrDownloadFailed
)

// NexusError represents a Nexus API client failure with enough detail
// for the caller to decide what to do next
type NexusError struct {
	Code       int       `json:"code,omitempty"` // HTTP status when Type == ErrHTTPStatus
	Reason     string    `json:"reason,omitempty"`
	Message    string    `json:"message"`
	Type       ErrorType `json:"type"`
	Suggestion string    `json:"suggestion,omitempty"`
	cause      error
}

// Error implements the error interface
func (e *NexusError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("nexus error (type: %s)", e.Type.String()))

	if e.Code != 0 {
		parts = append(parts, fmt.Sprintf("%d %s", e.Code, e.Reason))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, " - ")
}

func (e *NexusError) Unwrap() error {
	return e.cause
}

// String returns the string representation of ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrAuthFailed:
		return "AuthFailed"
	case ErrCancelled:
		return "Cancelled"
	case ErrHTTPStatus:
		return "HTTPStatus"
	case ErrDecode:
		return "Decode"
	case ErrEmptyResult:
		return "EmptyResult"
	case ErrSecretNotFound:
		return "SecretNotFound"
	case ErrInvalidInput:
		return "InvalidInput"
	case ErrNetwork:
		return "Network"
	case ErrDownloadFailed:
		return "DownloadFailed"
	default:
		return "Unknown"
	}
}

// NewNexusError creates a new NexusError of the given type
func NewNexusError(message string, errorType ErrorType) *NexusError {
	return &NexusError{
		Message:    message,
		Type:       errorType,
		Suggestion: defaultSuggestion(errorType),
	}
}

// NewHTTPStatusError creates an error for a non-success HTTP response
func NewHTTPStatusError(code int, reason string) *NexusError {
	return &NexusError{
		Code:       code,
		Reason:     reason,
		Message:    "request rejected by the Nexus API",
		Type:       ErrHTTPStatus,
		Suggestion: defaultSuggestion(ErrHTTPStatus),
	}
}

// NewDecodeError wraps a JSON decoding failure
func NewDecodeError(err error) *NexusError {
	return &NexusError{
		Message: "malformed JSON in API response",
		Type:    ErrDecode,
		cause:   err,
	}
}

// NewCancelledError wraps a caller-initiated abort
func NewCancelledError(err error) *NexusError {
	return &NexusError{
		Message: "operation cancelled",
		Type:    ErrCancelled,
		cause:   err,
	}
}

// WithSuggestion adds a custom suggestion to the error
func (e *NexusError) WithSuggestion(suggestion string) *NexusError {
	e.Suggestion = suggestion
	return e
}

// WithCause attaches the underlying error for errors.Is/As chains
func (e *NexusError) WithCause(err error) *NexusError {
	e.cause = err
	return e
}

// IsType reports whether err is a NexusError of the given type
func IsType(err error, errorType ErrorType) bool {
	var ne *NexusError
	if errors.As(err, &ne) {
		return ne.Type == errorType
	}
	return false
}

// IsRetryable returns true if the caller may reasonably retry the operation
func (e *NexusError) IsRetryable() bool {
	switch e.Type {
	case ErrNetwork:
		return true
	case ErrHTTPStatus:
		return e.Code >= 500 || e.Code == 429
	default:
		return false
	}
}

func defaultSuggestion(errorType ErrorType) string {
	switch errorType {
	case ErrAuthFailed:
		return "Set NEXUSAPIKEY or complete the interactive Nexus login"
	case ErrHTTPStatus:
		return "Check the request parameters and your remaining API quota"
	case ErrEmptyResult:
		return "Verify the game name and mod id exist on Nexus"
	default:
		return ""
	}
}
