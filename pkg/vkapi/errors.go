package vkapi

import (
	"errors"
	"fmt"
)

// ErrorType classifies client failures.
type ErrorType string

const (
	// ErrorTypeBreak is an error the policy table declares non-recoverable
	// for the whole run.
	ErrorTypeBreak ErrorType = "break"
	// ErrorTypeUnclassified is an error code, HTTP or embedded, with no
	// entry in the error table. It signals a configuration or contract
	// violation rather than a transient fault.
	ErrorTypeUnclassified ErrorType = "unclassified"
	// ErrorTypeShape is a successful response missing an expected field
	// path, which indicates API contract drift.
	ErrorTypeShape ErrorType = "response_shape"
	// ErrorTypeTransport is a network-level failure before any status code
	// was received.
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeExhausted is the configured retry budget running out.
	ErrorTypeExhausted ErrorType = "retry_exhausted"
)

// Error represents a VK client error with type information.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("vk %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsFatal reports whether the error belongs to a class the retry policy
// declares non-recoverable. The client never terminates the process itself;
// the top-level caller checks IsFatal and decides whether to exit.
func IsFatal(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.Type {
	case ErrorTypeBreak, ErrorTypeUnclassified, ErrorTypeShape, ErrorTypeTransport:
		return true
	default:
		return false
	}
}
