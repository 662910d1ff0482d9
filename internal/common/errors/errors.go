// Package errors provides standardized error values for the stock bot.
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
	ErrCodeCatalogSourceMissing ErrorCode = "CATALOG_SOURCE_MISSING"
	ErrCodeCatalogLoadFailed    ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeCatalogReloadFailed  ErrorCode = "CATALOG_RELOAD_FAILED"

	ErrCodeTransportConnectFailed ErrorCode = "TRANSPORT_CONNECT_FAILED"
	ErrCodeTransportDisconnected  ErrorCode = "TRANSPORT_DISCONNECTED"
	ErrCodeSessionInvalidated     ErrorCode = "SESSION_INVALIDATED"

	ErrCodeReplySendFailed ErrorCode = "REPLY_SEND_FAILED"

	ErrCodeDedupeUnavailable ErrorCode = "DEDUPE_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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

// WithMetadata returns the error with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewCatalogSourceMissingError is returned when the catalog file does not exist.
// The bot keeps running with an empty catalog.
func NewCatalogSourceMissingError(path string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogSourceMissing,
		Message:   "Catalog source not found",
		Details:   fmt.Sprintf("path: %s", path),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewCatalogLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Failed to load catalog",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewCatalogReloadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogReloadFailed,
		Message:   "Catalog reload failed, keeping previous snapshot",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTransportConnectFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportConnectFailed,
		Message:   "Messaging transport connect failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportDisconnectedError describes a transient drop. status is the
// transport status code, 0 when unknown.
func NewTransportDisconnectedError(status int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportDisconnected,
		Message:   "Messaging transport disconnected",
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionInvalidatedError means the stored credentials are no longer
// accepted and the operator has to pair the device again.
func NewSessionInvalidatedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionInvalidated,
		Message:   "Session invalid, re-authentication required",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewReplySendFailedError(recipient string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReplySendFailed,
		Message:   "Failed to send reply",
		Details:   fmt.Sprintf("recipient: %s, error: %s", recipient, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewDedupeUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDedupeUnavailable,
		Message:   "Message de-duplication store unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogLoadFailed,
		ErrCodeCatalogReloadFailed,
		ErrCodeDedupeUnavailable:
		return 3

	case ErrCodeTransportConnectFailed,
		ErrCodeTransportDisconnected:
		// reconnects are scheduled by the session controller without a cap
		return -1

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) != 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.HasPrefix(codeStr, "TRANSPORT"):
		return "TRANSPORT"
	case strings.HasPrefix(codeStr, "SESSION"):
		return "AUTH/SESSION"
	case strings.HasPrefix(codeStr, "REPLY"):
		return "MESSAGING"
	case strings.HasPrefix(codeStr, "DEDUPE"):
		return "CACHE"
	default:
		return "OTHER"
	}
}
