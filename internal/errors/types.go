package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes a bridge failure. Platform clients are responsible
// for mapping raw provider errors onto these codes so the engine never
// matches provider-specific strings.
type ErrorCode string

const (
	// ErrCodeTransientNetwork covers timeouts, rate limits and 5xx responses.
	// Retryable by the caller's policy; never triggers re-provisioning.
	ErrCodeTransientNetwork ErrorCode = "TRANSIENT_NETWORK"

	// ErrCodeResourceMissing means the destination reported that the target
	// sub-channel no longer exists. Triggers mapping invalidation.
	ErrCodeResourceMissing ErrorCode = "RESOURCE_MISSING"

	// ErrCodeUnsupportedKind marks a message kind with no native rendering.
	// Never fatal; the translator degrades to a textual fallback.
	ErrCodeUnsupportedKind ErrorCode = "UNSUPPORTED_KIND"

	// ErrCodeStoreUnavailable is a transient mapping-store failure. Callers
	// treat the state as unmapped rather than crashing.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"

	ErrCodeMediaTransfer ErrorCode = "MEDIA_TRANSFER"
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeInternal      ErrorCode = "INTERNAL"
)

// BridgeError is a structured application error carrying a code, an optional
// cause and free-form context for logging.
type BridgeError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Retryable bool                   `json:"retryable"`
}

func (e *BridgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair for structured logging.
func (e *BridgeError) WithContext(key string, value interface{}) *BridgeError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a BridgeError without a cause.
func New(code ErrorCode, message string) *BridgeError {
	return &BridgeError{Code: code, Message: message}
}

// Wrap annotates an existing error with a code.
func Wrap(err error, code ErrorCode, message string) *BridgeError {
	return &BridgeError{Code: code, Message: message, Cause: err}
}

// WrapRetryable wraps an error and marks it as retryable.
func WrapRetryable(err error, code ErrorCode, message string) *BridgeError {
	return &BridgeError{Code: code, Message: message, Cause: err, Retryable: true}
}

// GetCode extracts the code from anywhere in the error chain.
func GetCode(err error) ErrorCode {
	var be *BridgeError
	if errors.As(err, &be) {
		return be.Code
	}
	return ErrCodeInternal
}

// IsRetryable reports whether the error chain is marked retryable.
func IsRetryable(err error) bool {
	var be *BridgeError
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// IsResourceMissing reports the "destination resource gone" signature that
// the recovery supervisor acts on.
func IsResourceMissing(err error) bool {
	return GetCode(err) == ErrCodeResourceMissing
}

// IsTransient reports a transient network failure.
func IsTransient(err error) bool {
	return GetCode(err) == ErrCodeTransientNetwork
}

// IsStoreUnavailable reports a mapping-store failure.
func IsStoreUnavailable(err error) bool {
	return GetCode(err) == ErrCodeStoreUnavailable
}
