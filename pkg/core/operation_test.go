package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"ticker", OpTicker, "ticker"},
		{"depth", OpDepth, "depth"},
		{"trades", OpTrades, "trades"},
		{"order", OpOrder, "order"},
		{"cancel_order", OpCancelOrder, "cancelorder"},
		{"get_order", OpGetOrder, "getorder"},
		{"get_orders", OpGetOrders, "getorders"},
		{"get_orders_new", OpGetOrdersNew, "getordersnew"},
		{"get_orders_ignore", OpGetOrdersIgnoreTradeType, "getordersignoretradetype"},
		{"get_unfinished", OpGetUnfinishedOrdersIgnoreTradeType, "getunfinishedordersignoretradetype"},
		{"get_user_address", OpGetUserAddress, "getuseraddress"},
		{"get_withdraw_address", OpGetWithdrawAddress, "getwithdrawaddress"},
		{"get_withdraw_record", OpGetWithdrawRecord, "getwithdrawrecord"},
		{"cancel_withdraw", OpCancelWithdraw, "cancelwithdraw"},
		{"withdraw", OpWithdraw, "withdraw"},
		{"get_account_info", OpGetAccountInfo, "getaccountinfo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestOperation_IsPublic(t *testing.T) {
	for op := OpTicker; op <= OpGetAccountInfo; op++ {
		want := op == OpTicker || op == OpDepth || op == OpTrades
		assert.Equal(t, want, op.IsPublic(), op.String())
	}
}

func TestOperation_RequiresSafePassword(t *testing.T) {
	assert.True(t, OpWithdraw.RequiresSafePassword())
	assert.True(t, OpCancelWithdraw.RequiresSafePassword())
	assert.False(t, OpOrder.RequiresSafePassword())
	assert.False(t, OpGetAccountInfo.RequiresSafePassword())
}
