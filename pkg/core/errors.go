package core

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a client error.
type ErrorType int

// Error type constants categorize errors for proper handling.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeConfiguration indicates an invalid URL, scheme or missing credential.
	ErrorTypeConfiguration
	// ErrorTypeConnection indicates a TCP, TLS or handshake failure.
	ErrorTypeConnection
	// ErrorTypeChannelNotActive indicates a send on a session that is not alive.
	ErrorTypeChannelNotActive
	// ErrorTypeSerialization indicates a payload that could not be encoded.
	ErrorTypeSerialization
	// ErrorTypeInvalidRequest indicates command parameters rejected before sending.
	ErrorTypeInvalidRequest
	// ErrorTypeExchange indicates a failure result reported by the exchange.
	ErrorTypeExchange
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"CONFIGURATION",
		"CONNECTION",
		"CHANNEL_NOT_ACTIVE",
		"SERIALIZATION",
		"INVALID_REQUEST",
		"EXCHANGE",
	}[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrChannelNotActive is returned when sending on a session that is not alive.
	ErrChannelNotActive = errors.New("the channel is not active")
	// ErrNoCredentials is returned when a signed command has no access key configured.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrNoSafePassword is returned when a withdrawal command has no funds password configured.
	ErrNoSafePassword = errors.New("no safe password configured")
	// ErrSessionClosed is returned when connecting a session that was closed.
	ErrSessionClosed = errors.New("session is closed")
)

// Error is a categorized client error. Op names the failing operation.
type Error struct {
	Type    ErrorType
	Op      string
	Code    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s %s (%d): %s", e.Op, e.Type, e.Code, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Type, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match against another *Error of the same type, so callers can
// write errors.Is(err, &core.Error{Type: core.ErrorTypeConnection}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Op == "" || t.Op == e.Op)
}

// NewError creates an Error of the given type wrapping err.
func NewError(errorType ErrorType, op string, err error) *Error {
	return &Error{Type: errorType, Op: op, Err: err}
}

// NewErrorf creates an Error of the given type with a formatted message.
func NewErrorf(errorType ErrorType, op, format string, args ...any) *Error {
	return &Error{Type: errorType, Op: op, Message: fmt.Sprintf(format, args...)}
}

// ChannelNotActive returns the error reported by sends on a dead session.
func ChannelNotActive(op string) *Error {
	return NewError(ErrorTypeChannelNotActive, op, ErrChannelNotActive)
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsConfigurationError returns true if err was caused by invalid configuration.
func IsConfigurationError(err error) bool {
	return TypeOf(err) == ErrorTypeConfiguration
}

// IsConnectionError returns true if err was caused by a failed connect.
func IsConnectionError(err error) bool {
	return TypeOf(err) == ErrorTypeConnection
}

// IsChannelNotActive returns true if err was caused by sending on a dead session.
// Callers racing a send against connect should expect this error.
func IsChannelNotActive(err error) bool {
	return TypeOf(err) == ErrorTypeChannelNotActive || errors.Is(err, ErrChannelNotActive)
}

// IsSerializationError returns true if err was caused by payload encoding.
func IsSerializationError(err error) bool {
	return TypeOf(err) == ErrorTypeSerialization
}

// IsInvalidRequestError returns true if the command parameters were rejected.
func IsInvalidRequestError(err error) bool {
	return TypeOf(err) == ErrorTypeInvalidRequest
}

// IsExchangeError returns true if err carries a failure result from the exchange.
func IsExchangeError(err error) bool {
	return TypeOf(err) == ErrorTypeExchange
}
