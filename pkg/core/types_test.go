package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTradeType_String(t *testing.T) {
	tests := []struct {
		name string
		tt   TradeType
		want string
	}{
		{"buy", TradeBuy, "BUY"},
		{"sell", TradeSell, "SELL"},
		{"unknown", TradeType(7), "TradeType(7)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.tt.String())
		})
	}
}

func TestTradeType_WireValues(t *testing.T) {
	assert.Equal(t, 1, int(TradeBuy))
	assert.Equal(t, 0, int(TradeSell))
	assert.True(t, TradeBuy.Valid())
	assert.True(t, TradeSell.Valid())
	assert.False(t, TradeType(2).Valid())
}

func TestParseTradeType(t *testing.T) {
	tests := []struct {
		in   string
		want TradeType
		ok   bool
	}{
		{"buy", TradeBuy, true},
		{"BUY", TradeBuy, true},
		{"1", TradeBuy, true},
		{"sell", TradeSell, true},
		{"0", TradeSell, true},
		{"hold", 0, false},
	}

	for _, tc := range tests {
		got, ok := ParseTradeType(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}
