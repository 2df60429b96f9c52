package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		name      string
		errorType ErrorType
		want      string
	}{
		{"unknown", ErrorTypeUnknown, "UNKNOWN"},
		{"configuration", ErrorTypeConfiguration, "CONFIGURATION"},
		{"connection", ErrorTypeConnection, "CONNECTION"},
		{"channel_not_active", ErrorTypeChannelNotActive, "CHANNEL_NOT_ACTIVE"},
		{"serialization", ErrorTypeSerialization, "SERIALIZATION"},
		{"invalid_request", ErrorTypeInvalidRequest, "INVALID_REQUEST"},
		{"exchange", ErrorTypeExchange, "EXCHANGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errorType.String())
		})
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "wrapped",
			err:  ChannelNotActive("send"),
			want: "send CHANNEL_NOT_ACTIVE: the channel is not active",
		},
		{
			name: "message_only",
			err:  NewErrorf(ErrorTypeConfiguration, "connect", "unsupported scheme %q", "http"),
			want: `connect CONFIGURATION: unsupported scheme "http"`,
		},
		{
			name: "message_and_cause",
			err:  &Error{Type: ErrorTypeConnection, Op: "connect", Message: "handshake", Err: errors.New("EOF")},
			want: "connect CONNECTION: handshake: EOF",
		},
		{
			name: "with_code",
			err:  &Error{Type: ErrorTypeExchange, Op: "ethbtc_order", Code: 3001, Message: "order not found"},
			want: "ethbtc_order EXCHANGE (3001): order not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_IsAndAs(t *testing.T) {
	err := fmt.Errorf("order: %w", ChannelNotActive("send"))

	assert.True(t, errors.Is(err, ErrChannelNotActive))
	assert.True(t, errors.Is(err, &Error{Type: ErrorTypeChannelNotActive}))
	assert.True(t, errors.Is(err, &Error{Type: ErrorTypeChannelNotActive, Op: "send"}))
	assert.False(t, errors.Is(err, &Error{Type: ErrorTypeChannelNotActive, Op: "connect"}))
	assert.False(t, errors.Is(err, &Error{Type: ErrorTypeConnection}))

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "send", e.Op)
}

func TestErrorHelpers(t *testing.T) {
	configErr := NewError(ErrorTypeConfiguration, "connect", errors.New("empty url"))
	connErr := NewError(ErrorTypeConnection, "connect", errors.New("refused"))
	notActive := ChannelNotActive("send")
	serErr := NewError(ErrorTypeSerialization, "marshal", errors.New("bad"))
	reqErr := NewErrorf(ErrorTypeInvalidRequest, "order", "price must be positive")
	exErr := &Error{Type: ErrorTypeExchange, Code: 1003}
	plain := errors.New("plain")

	assert.True(t, IsConfigurationError(configErr))
	assert.False(t, IsConfigurationError(connErr))
	assert.True(t, IsConnectionError(connErr))
	assert.True(t, IsChannelNotActive(notActive))
	assert.True(t, IsChannelNotActive(fmt.Errorf("wrap: %w", ErrChannelNotActive)))
	assert.True(t, IsSerializationError(serErr))
	assert.True(t, IsInvalidRequestError(reqErr))
	assert.True(t, IsExchangeError(exErr))

	assert.False(t, IsConfigurationError(plain))
	assert.False(t, IsChannelNotActive(plain))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(plain))
	assert.Equal(t, ErrorTypeConnection, TypeOf(fmt.Errorf("x: %w", connErr)))
}

func TestResultCode(t *testing.T) {
	tests := []struct {
		code    ResultCode
		success bool
		balance bool
		want    string
	}{
		{CodeSuccess, true, false, "success"},
		{CodeAuthFailed, false, false, "authentication failed"},
		{2002, false, true, "insufficient balance"},
		{CodeInsufficientBalance, false, true, "insufficient balance"},
		{CodeTooFrequent, false, false, "requests too frequent"},
		{9999, false, false, "result code 9999"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.success, tt.code.IsSuccess(), "code %d", tt.code)
		assert.Equal(t, tt.balance, tt.code.IsInsufficientBalance(), "code %d", tt.code)
		assert.Equal(t, tt.want, tt.code.String())
	}
}
