package zb

import (
	"encoding/json"

	"github.com/bytedance/sonic"

	"zbws/pkg/core"
)

// Response is the envelope of a reply frame. Market data frames carry only
// Channel plus their own fields, so Success and Code are optional.
type Response struct {
	Channel string          `json:"channel"`
	Success *bool           `json:"success,omitempty"`
	Code    int             `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	No      any             `json:"no,omitempty"`

	raw string
}

// DecodeResponse parses a reply frame. The frame is not matched to any
// request; callers correlate by Channel.
func DecodeResponse(text string) (*Response, error) {
	var r Response
	if err := sonic.UnmarshalString(text, &r); err != nil {
		return nil, core.NewError(core.ErrorTypeSerialization, "decode response", err)
	}
	r.raw = text
	return &r, nil
}

// Raw returns the frame the response was decoded from.
func (r *Response) Raw() string {
	return r.raw
}

// ResultCode returns the exchange result code, zero when absent.
func (r *Response) ResultCode() core.ResultCode {
	return core.ResultCode(r.Code)
}

// OK reports whether the frame does not signal a failure.
func (r *Response) OK() bool {
	return r.Err() == nil
}

// Err returns an Exchange error when the frame reports a failed command, or
// nil for successes and market data.
func (r *Response) Err() error {
	code := r.ResultCode()
	failed := (r.Success != nil && !*r.Success) || (code != 0 && !code.IsSuccess())
	if !failed {
		return nil
	}

	msg := r.Message
	if msg == "" {
		msg = code.String()
	}
	return &core.Error{
		Type:    core.ErrorTypeExchange,
		Op:      r.Channel,
		Code:    r.Code,
		Message: msg,
	}
}

// DecodeData unmarshals the data field into v.
func (r *Response) DecodeData(v any) error {
	if len(r.Data) == 0 {
		return core.NewErrorf(core.ErrorTypeSerialization, "decode data", "response has no data")
	}
	if err := sonic.Unmarshal(r.Data, v); err != nil {
		return core.NewError(core.ErrorTypeSerialization, "decode data", err)
	}
	return nil
}
