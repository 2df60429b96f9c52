package zb

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"

	"zbws/pkg/core"
)

// Event values understood by the exchange.
const (
	EventAddChannel    = "addChannel"
	EventRemoveChannel = "removeChannel"
)

// Field names shared by several commands.
const (
	KeyEvent     = "event"
	KeyChannel   = "channel"
	KeyAccessKey = "accesskey"
	KeySign      = "sign"
)

type field struct {
	key   string
	value any
}

// Payload is a JSON object whose keys serialize in insertion order. The
// exchange verifies the signature against the exact bytes, so order matters.
type Payload struct {
	fields []field
}

// NewPayload starts a payload with the event and channel keys.
func NewPayload(event, channel string) *Payload {
	p := &Payload{fields: make([]field, 0, 8)}
	p.Set(KeyEvent, event)
	p.Set(KeyChannel, channel)
	return p
}

// Set appends key, or replaces its value in place if already present.
func (p *Payload) Set(key string, value any) *Payload {
	for i := range p.fields {
		if p.fields[i].key == key {
			p.fields[i].value = value
			return p
		}
	}
	p.fields = append(p.fields, field{key: key, value: value})
	return p
}

// Get returns the value stored under key.
func (p *Payload) Get(key string) (any, bool) {
	for _, f := range p.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

// Keys returns the keys in serialization order.
func (p *Payload) Keys() []string {
	keys := make([]string, len(p.fields))
	for i, f := range p.fields {
		keys[i] = f.key
	}
	return keys
}

// Len returns the number of keys.
func (p *Payload) Len() int {
	return len(p.fields)
}

// Without returns a copy of the payload minus key.
func (p *Payload) Without(key string) *Payload {
	out := &Payload{fields: make([]field, 0, len(p.fields))}
	for _, f := range p.fields {
		if f.key != key {
			out.fields = append(out.fields, f)
		}
	}
	return out
}

// MarshalJSON writes compact JSON with keys in insertion order. HTML
// characters are not escaped and nil values are written as null.
func (p *Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := sonic.Marshal(f.key)
		if err != nil {
			return nil, core.NewError(core.ErrorTypeSerialization, "marshal", err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		value, err := sonic.Marshal(f.value)
		if err != nil {
			return nil, &core.Error{
				Type:    core.ErrorTypeSerialization,
				Op:      "marshal",
				Message: fmt.Sprintf("field %q", f.key),
				Err:     err,
			}
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
