package core

// Operation identifies a command the client can send. Its String value is the
// channel suffix appended after the lowercased coin.
type Operation int

// Operation constants define every command the exchange accepts over the socket.
const (
	// OpTicker subscribes to the public ticker of a market.
	OpTicker Operation = iota
	// OpDepth subscribes to the public order book depth of a market.
	OpDepth
	// OpTrades subscribes to the public trade history of a market.
	OpTrades
	// OpOrder places a limit order.
	OpOrder
	// OpCancelOrder cancels an order by id.
	OpCancelOrder
	// OpGetOrder fetches one order by id.
	OpGetOrder
	// OpGetOrders fetches a page of ten orders filtered by trade type.
	OpGetOrders
	// OpGetOrdersNew fetches a sized page of orders filtered by trade type.
	OpGetOrdersNew
	// OpGetOrdersIgnoreTradeType fetches a sized page of buy and sell orders.
	OpGetOrdersIgnoreTradeType
	// OpGetUnfinishedOrdersIgnoreTradeType fetches open or partially filled orders.
	OpGetUnfinishedOrdersIgnoreTradeType
	// OpGetUserAddress fetches the deposit address of a currency.
	OpGetUserAddress
	// OpGetWithdrawAddress fetches the verified withdrawal address of a currency.
	OpGetWithdrawAddress
	// OpGetWithdrawRecord fetches a page of withdrawal records.
	OpGetWithdrawRecord
	// OpCancelWithdraw cancels a pending withdrawal.
	OpCancelWithdraw
	// OpWithdraw requests a withdrawal.
	OpWithdraw
	// OpGetAccountInfo fetches balances for the whole account.
	OpGetAccountInfo
)

// String returns the channel suffix of the operation.
func (o Operation) String() string {
	return [...]string{
		"ticker",
		"depth",
		"trades",
		"order",
		"cancelorder",
		"getorder",
		"getorders",
		"getordersnew",
		"getordersignoretradetype",
		"getunfinishedordersignoretradetype",
		"getuseraddress",
		"getwithdrawaddress",
		"getwithdrawrecord",
		"cancelwithdraw",
		"withdraw",
		"getaccountinfo",
	}[o]
}

// IsPublic reports whether the operation is a public market-data subscription
// that is sent without accesskey and sign.
func (o Operation) IsPublic() bool {
	return o == OpTicker || o == OpDepth || o == OpTrades
}

// RequiresSafePassword reports whether the command carries the funds password.
func (o Operation) RequiresSafePassword() bool {
	return o == OpWithdraw || o == OpCancelWithdraw
}
