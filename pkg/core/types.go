package core

import "strconv"

// TradeType is the side of an order as the exchange encodes it.
type TradeType int

// Trade type constants. The exchange uses 1 for buy and 0 for sell.
const (
	TradeSell TradeType = 0
	TradeBuy  TradeType = 1
)

// String returns "BUY" or "SELL".
func (t TradeType) String() string {
	switch t {
	case TradeBuy:
		return "BUY"
	case TradeSell:
		return "SELL"
	default:
		return "TradeType(" + strconv.Itoa(int(t)) + ")"
	}
}

// Valid reports whether t is one of the known trade types.
func (t TradeType) Valid() bool {
	return t == TradeBuy || t == TradeSell
}

// ParseTradeType accepts "buy"/"sell" in either case, or "1"/"0".
func ParseTradeType(s string) (TradeType, bool) {
	switch s {
	case "buy", "BUY", "1":
		return TradeBuy, true
	case "sell", "SELL", "0":
		return TradeSell, true
	}
	return 0, false
}
