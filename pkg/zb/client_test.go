package zb

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zbws/pkg/core"
	"zbws/pkg/metrics"
)

type recordingSender struct {
	mu     sync.Mutex
	alive  bool
	err    error
	frames []string
}

func (s *recordingSender) Send(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive {
		return core.ChannelNotActive("send")
	}
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, text)
	return nil
}

func (s *recordingSender) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

func (s *recordingSender) Frames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.frames...)
}

func (s *recordingSender) Last(t *testing.T) string {
	t.Helper()
	frames := s.Frames()
	require.NotEmpty(t, frames)
	return frames[len(frames)-1]
}

func newTestClient(t *testing.T, creds *core.Credentials) (*Client, *recordingSender) {
	t.Helper()
	sender := &recordingSender{alive: true}
	client, err := NewClient(core.DefaultConfig().WithCredentials(creds), sender)
	require.NoError(t, err)
	client.SetMetrics(metrics.New(nil))
	return client, sender
}

func fullCredentials() *core.Credentials {
	return &core.Credentials{AccessKey: "access", SecretKey: "secret", SafePassword: "funds"}
}

// keysInOrder returns the top-level keys of a flat JSON object in the order
// they appear.
func keysInOrder(t *testing.T, frame string) []string {
	t.Helper()
	var decoded map[string]any
	require.NoError(t, sonic.UnmarshalString(frame, &decoded))

	type pos struct {
		key string
		at  int
	}
	positions := make([]pos, 0, len(decoded))
	for k := range decoded {
		idx := strings.Index(frame, `"`+k+`":`)
		require.GreaterOrEqual(t, idx, 0, k)
		positions = append(positions, pos{k, idx})
	}
	for i := 1; i < len(positions); i++ {
		for j := i; j > 0 && positions[j].at < positions[j-1].at; j-- {
			positions[j], positions[j-1] = positions[j-1], positions[j]
		}
	}
	keys := make([]string, len(positions))
	for i, p := range positions {
		keys[i] = p.key
	}
	return keys
}

func unsignedPart(t *testing.T, frame string) (string, string) {
	t.Helper()
	idx := strings.LastIndex(frame, `,"sign":"`)
	require.Greater(t, idx, 0)
	sign := strings.TrimSuffix(frame[idx+len(`,"sign":"`):], `"}`)
	return frame[:idx] + "}", sign
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil, nil)
	assert.True(t, core.IsConfigurationError(err))

	_, err = NewClient(core.DefaultConfig().WithURL(""), &recordingSender{})
	assert.True(t, core.IsConfigurationError(err))

	_, err = NewClient(core.DefaultConfig().WithDigestAlgorithm("sha256"), &recordingSender{})
	assert.True(t, core.IsConfigurationError(err))

	c, err := NewClient(nil, &recordingSender{})
	require.NoError(t, err)
	assert.Nil(t, c.RateLimiter())
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "ethbtc_order", ChannelName("ETHBTC", core.OpOrder))
	assert.Equal(t, "ltcbtc_depth", ChannelName("ltcbtc", core.OpDepth))
	assert.Equal(t, "getaccountinfo", ChannelName("ethbtc", core.OpGetAccountInfo))
}

func TestClient_AddChannel(t *testing.T) {
	client, sender := newTestClient(t, nil)

	require.NoError(t, client.AddChannel(context.Background(), "ltcbtc_depth"))

	assert.Equal(t, `{"event":"addChannel","channel":"ltcbtc_depth"}`, sender.Last(t))
}

func TestClient_RemoveChannel(t *testing.T) {
	client, sender := newTestClient(t, fullCredentials())

	require.NoError(t, client.RemoveChannel(context.Background(), " ltcbtc_depth "))

	assert.Equal(t, `{"event":"removeChannel","channel":"ltcbtc_depth"}`, sender.Last(t))
}

func TestClient_Subscribe(t *testing.T) {
	client, sender := newTestClient(t, nil)
	ctx := context.Background()

	require.NoError(t, client.SubscribeTicker(ctx, "LTCBTC"))
	require.NoError(t, client.SubscribeDepth(ctx, "ltcbtc"))
	require.NoError(t, client.SubscribeTrades(ctx, "ltcbtc"))

	assert.Equal(t, []string{
		`{"event":"addChannel","channel":"ltcbtc_ticker"}`,
		`{"event":"addChannel","channel":"ltcbtc_depth"}`,
		`{"event":"addChannel","channel":"ltcbtc_trades"}`,
	}, sender.Frames())
}

func TestClient_Order_ReferenceFrame(t *testing.T) {
	client, sender := newTestClient(t, &core.Credentials{AccessKey: "ak"})

	err := client.Order(context.Background(), OrderRequest{
		Coin:      "ethbtc",
		Price:     MustDecimal("0.0192"),
		Amount:    MustDecimal("1"),
		TradeType: core.TradeSell,
	})
	require.NoError(t, err)

	assert.Equal(t,
		`{"event":"addChannel","channel":"ethbtc_order","accesskey":"ak","price":"0.0192","amount":"1","tradeType":0,"sign":"ea2e63596ac8e4e54f6459d0aca4aa61"}`,
		sender.Last(t))
}

func TestClient_Order_SHA1Digest(t *testing.T) {
	sender := &recordingSender{alive: true}
	cfg := core.DefaultConfig().
		WithCredentials(&core.Credentials{AccessKey: "ak"}).
		WithDigestAlgorithm(core.DigestSHA1)
	client, err := NewClient(cfg, sender)
	require.NoError(t, err)

	err = client.Order(context.Background(), OrderRequest{
		Coin:      "ethbtc",
		Price:     MustDecimal("1.92E-2"),
		Amount:    MustDecimal("1"),
		TradeType: core.TradeSell,
	})
	require.NoError(t, err)

	_, sign := unsignedPart(t, sender.Last(t))
	assert.Equal(t, "5bcd5e52fd971a315dcecbb4eee9c0fb", sign)
}

func TestClient_GetAccountInfo_ReferenceFrame(t *testing.T) {
	client, sender := newTestClient(t, fullCredentials())

	require.NoError(t, client.GetAccountInfo(context.Background()))

	assert.Equal(t,
		`{"event":"addChannel","channel":"getaccountinfo","accesskey":"access","no":null,"sign":"1643b0e8f4dfcd914670c6a2d35e35b8"}`,
		sender.Last(t))
}

func TestClient_CommandSchemas(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		call    func(c *Client) error
		channel string
		keys    []string
	}{
		{
			name: "order",
			call: func(c *Client) error {
				return c.Order(ctx, OrderRequest{Coin: "ethbtc", Price: MustDecimal("0.5"), Amount: MustDecimal("2"), TradeType: core.TradeBuy})
			},
			channel: "ethbtc_order",
			keys:    []string{"event", "channel", "accesskey", "price", "amount", "tradeType", "sign"},
		},
		{
			name:    "cancel_order",
			call:    func(c *Client) error { return c.CancelOrder(ctx, "ethbtc", 20151006160133556) },
			channel: "ethbtc_cancelorder",
			keys:    []string{"event", "channel", "accesskey", "id", "sign"},
		},
		{
			name:    "get_order",
			call:    func(c *Client) error { return c.GetOrder(ctx, "ethbtc", 20151006160133556) },
			channel: "ethbtc_getorder",
			keys:    []string{"event", "channel", "accesskey", "id", "sign"},
		},
		{
			name:    "get_orders",
			call:    func(c *Client) error { return c.GetOrders(ctx, "ethbtc", core.TradeBuy, 1) },
			channel: "ethbtc_getorders",
			keys:    []string{"event", "channel", "accesskey", "tradeType", "pageIndex", "sign"},
		},
		{
			name:    "get_orders_new",
			call:    func(c *Client) error { return c.GetOrdersNew(ctx, "ethbtc", core.TradeSell, 1, 10) },
			channel: "ethbtc_getordersnew",
			keys:    []string{"event", "channel", "accesskey", "tradeType", "pageIndex", "pageSize", "sign"},
		},
		{
			name:    "get_orders_ignore_trade_type",
			call:    func(c *Client) error { return c.GetOrdersIgnoreTradeType(ctx, "ethbtc", 1, 10) },
			channel: "ethbtc_getordersignoretradetype",
			keys:    []string{"event", "channel", "accesskey", "pageIndex", "pageSize", "sign"},
		},
		{
			name:    "get_unfinished_orders",
			call:    func(c *Client) error { return c.GetUnfinishedOrdersIgnoreTradeType(ctx, "ethbtc", 2, 100) },
			channel: "ethbtc_getunfinishedordersignoretradetype",
			keys:    []string{"event", "channel", "accesskey", "pageIndex", "pageSize", "sign"},
		},
		{
			name:    "get_user_address",
			call:    func(c *Client) error { return c.GetUserAddress(ctx, "btc") },
			channel: "btc_getuseraddress",
			keys:    []string{"event", "channel", "accesskey", "sign"},
		},
		{
			name:    "get_withdraw_address",
			call:    func(c *Client) error { return c.GetWithdrawAddress(ctx, "btc") },
			channel: "btc_getwithdrawaddress",
			keys:    []string{"event", "channel", "accesskey", "sign"},
		},
		{
			name:    "get_withdraw_record",
			call:    func(c *Client) error { return c.GetWithdrawRecord(ctx, "btc", 1, 10) },
			channel: "btc_getwithdrawrecord",
			keys:    []string{"event", "channel", "accesskey", "pageIndex", "pageSize", "sign"},
		},
		{
			name:    "cancel_withdraw",
			call:    func(c *Client) error { return c.CancelWithdraw(ctx, "btc", "20160425916") },
			channel: "btc_cancelwithdraw",
			keys:    []string{"event", "channel", "accesskey", "downloadId", "safePwd", "sign"},
		},
		{
			name: "withdraw",
			call: func(c *Client) error {
				return c.Withdraw(ctx, WithdrawRequest{Coin: "btc", Amount: MustDecimal("0.01"), Fees: MustDecimal("0.0003"), ReceiveAddr: "1BoatSLRHtKNngkdXEeobR76b53LETtpyT"})
			},
			channel: "btc_withdraw",
			keys:    []string{"event", "channel", "accesskey", "amount", "fees", "receiveAddr", "safePwd", "sign"},
		},
		{
			name:    "get_account_info",
			call:    func(c *Client) error { return c.GetAccountInfo(ctx) },
			channel: "getaccountinfo",
			keys:    []string{"event", "channel", "accesskey", "no", "sign"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, sender := newTestClient(t, fullCredentials())

			require.NoError(t, tt.call(client))

			frame := sender.Last(t)
			assert.Equal(t, tt.keys, keysInOrder(t, frame))

			var decoded map[string]any
			require.NoError(t, sonic.UnmarshalString(frame, &decoded))
			assert.Equal(t, EventAddChannel, decoded["event"])
			assert.Equal(t, tt.channel, decoded["channel"])
			assert.Equal(t, "access", decoded["accesskey"])

			unsigned, sign := unsignedPart(t, frame)
			assert.Regexp(t, `^[0-9a-f]{32}$`, sign)
			assert.Equal(t, SignHMAC(unsigned, "5ebe2294ecd0e0f08eab7690d2a6ee69"), sign)
		})
	}
}

func TestClient_DecimalsAreStrings(t *testing.T) {
	client, sender := newTestClient(t, fullCredentials())

	err := client.Withdraw(context.Background(), WithdrawRequest{
		Coin:        "btc",
		Amount:      MustDecimal("1E-8"),
		Fees:        MustDecimal("0"),
		ReceiveAddr: "addr",
	})
	require.NoError(t, err)

	frame := sender.Last(t)
	assert.Contains(t, frame, `"amount":"0.00000001"`)
	assert.Contains(t, frame, `"fees":"0"`)
	assert.Contains(t, frame, `"safePwd":"funds"`)
	assert.NotContains(t, frame, "E-")
}

func TestClient_NotAlive(t *testing.T) {
	ctx := context.Background()
	sender := &recordingSender{alive: false}
	client, err := NewClient(core.DefaultConfig().WithCredentials(fullCredentials()), sender)
	require.NoError(t, err)

	calls := map[string]func() error{
		"add_channel":    func() error { return client.AddChannel(ctx, "ltcbtc_depth") },
		"remove_channel": func() error { return client.RemoveChannel(ctx, "ltcbtc_depth") },
		"ticker":         func() error { return client.SubscribeTicker(ctx, "ltcbtc") },
		"order": func() error {
			return client.Order(ctx, OrderRequest{Coin: "ethbtc", Price: MustDecimal("1"), Amount: MustDecimal("1")})
		},
		"cancel_order":    func() error { return client.CancelOrder(ctx, "ethbtc", 1) },
		"get_orders":      func() error { return client.GetOrders(ctx, "ethbtc", core.TradeBuy, 1) },
		"user_address":    func() error { return client.GetUserAddress(ctx, "btc") },
		"withdraw_record": func() error { return client.GetWithdrawRecord(ctx, "btc", 1, 10) },
		"cancel_withdraw": func() error { return client.CancelWithdraw(ctx, "btc", "1") },
		"account_info":    func() error { return client.GetAccountInfo(ctx) },
		// invalid parameters still report the dead channel first
		"invalid_page": func() error { return client.GetOrdersNew(ctx, "ethbtc", core.TradeBuy, 0, 0) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.True(t, core.IsChannelNotActive(err), "got %v", err)
		})
	}
	assert.Empty(t, sender.Frames())
}

func TestClient_InvalidRequests(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		call func(c *Client) error
	}{
		{"empty_channel", func(c *Client) error { return c.AddChannel(ctx, "  ") }},
		{"empty_market", func(c *Client) error { return c.SubscribeDepth(ctx, "") }},
		{"market_with_separator", func(c *Client) error { return c.SubscribeDepth(ctx, "ltc_btc") }},
		{"order_nil_price", func(c *Client) error {
			return c.Order(ctx, OrderRequest{Coin: "ethbtc", Amount: MustDecimal("1")})
		}},
		{"order_zero_amount", func(c *Client) error {
			return c.Order(ctx, OrderRequest{Coin: "ethbtc", Price: MustDecimal("1"), Amount: MustDecimal("0")})
		}},
		{"order_negative_price", func(c *Client) error {
			return c.Order(ctx, OrderRequest{Coin: "ethbtc", Price: MustDecimal("-1"), Amount: MustDecimal("1")})
		}},
		{"order_bad_trade_type", func(c *Client) error {
			return c.Order(ctx, OrderRequest{Coin: "ethbtc", Price: MustDecimal("1"), Amount: MustDecimal("1"), TradeType: 2})
		}},
		{"order_missing_coin", func(c *Client) error {
			return c.Order(ctx, OrderRequest{Price: MustDecimal("1"), Amount: MustDecimal("1")})
		}},
		{"zero_id", func(c *Client) error { return c.CancelOrder(ctx, "ethbtc", 0) }},
		{"page_index_zero", func(c *Client) error { return c.GetOrders(ctx, "ethbtc", core.TradeBuy, 0) }},
		{"page_size_zero", func(c *Client) error { return c.GetOrdersNew(ctx, "ethbtc", core.TradeBuy, 1, 0) }},
		{"page_size_too_large", func(c *Client) error {
			return c.GetOrdersIgnoreTradeType(ctx, "ethbtc", 1, MaxPageSize+1)
		}},
		{"withdraw_record_page_size", func(c *Client) error { return c.GetWithdrawRecord(ctx, "btc", 1, -1) }},
		{"cancel_withdraw_empty_id", func(c *Client) error { return c.CancelWithdraw(ctx, "btc", "") }},
		{"withdraw_negative_fees", func(c *Client) error {
			return c.Withdraw(ctx, WithdrawRequest{Coin: "btc", Amount: MustDecimal("1"), Fees: MustDecimal("-0.1"), ReceiveAddr: "a"})
		}},
		{"withdraw_missing_address", func(c *Client) error {
			return c.Withdraw(ctx, WithdrawRequest{Coin: "btc", Amount: MustDecimal("1"), Fees: MustDecimal("0")})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, sender := newTestClient(t, fullCredentials())

			err := tt.call(client)

			require.Error(t, err)
			assert.True(t, core.IsInvalidRequestError(err), "got %v", err)
			assert.Empty(t, sender.Frames())
		})
	}
}

func TestClient_MissingCredentials(t *testing.T) {
	client, sender := newTestClient(t, nil)

	err := client.GetUserAddress(context.Background(), "btc")

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoCredentials)
	assert.True(t, core.IsConfigurationError(err))
	assert.Empty(t, sender.Frames())
}

func TestClient_MissingSafePassword(t *testing.T) {
	client, sender := newTestClient(t, &core.Credentials{AccessKey: "access", SecretKey: "secret"})
	ctx := context.Background()

	err := client.CancelWithdraw(ctx, "btc", "20160425916")
	assert.ErrorIs(t, err, core.ErrNoSafePassword)

	err = client.Withdraw(ctx, WithdrawRequest{Coin: "btc", Amount: MustDecimal("1"), Fees: MustDecimal("0"), ReceiveAddr: "a"})
	assert.ErrorIs(t, err, core.ErrNoSafePassword)

	require.NoError(t, client.GetWithdrawAddress(ctx, "btc"))
	assert.Len(t, sender.Frames(), 1)
}

func TestClient_SecretNeverSent(t *testing.T) {
	client, sender := newTestClient(t, fullCredentials())
	ctx := context.Background()

	require.NoError(t, client.GetAccountInfo(ctx))
	require.NoError(t, client.GetOrder(ctx, "ethbtc", 1))

	for _, frame := range sender.Frames() {
		assert.NotContains(t, frame, `"secret"`)
		assert.NotContains(t, frame, "5ebe2294ecd0e0f08eab7690d2a6ee69")
		assert.NotContains(t, frame, "funds")
	}
}

func TestClient_SendError(t *testing.T) {
	client, sender := newTestClient(t, nil)
	sender.err = errors.New("broken pipe")

	err := client.AddChannel(context.Background(), "ltcbtc_depth")

	assert.EqualError(t, err, "broken pipe")
}

func TestClient_RateLimit(t *testing.T) {
	sender := &recordingSender{alive: true}
	client, err := NewClient(core.DefaultConfig().WithRateLimit(1, time.Hour), sender)
	require.NoError(t, err)
	require.NotNil(t, client.RateLimiter())

	require.NoError(t, client.AddChannel(context.Background(), "ltcbtc_depth"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = client.AddChannel(ctx, "ltcbtc_ticker")

	require.Error(t, err)
	assert.Len(t, sender.Frames(), 1)
	assert.Equal(t, int64(1), client.RateLimiter().Metrics().DeniedRequests)
}

func TestClient_ConcurrentCommands(t *testing.T) {
	client, sender := newTestClient(t, fullCredentials())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			assert.NoError(t, client.GetOrder(ctx, "ethbtc", int64(i+1)))
		})
	}
	wg.Wait()

	frames := sender.Frames()
	require.Len(t, frames, 20)
	for _, frame := range frames {
		unsigned, sign := unsignedPart(t, frame)
		assert.Equal(t, SignHMAC(unsigned, "5ebe2294ecd0e0f08eab7690d2a6ee69"), sign)
	}
}
