package zb

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"zbws/internal/ratelimit"
	"zbws/pkg/core"
	"zbws/pkg/metrics"
)

// Sender is the transport a Client writes frames to. *session.Session
// satisfies it.
type Sender interface {
	Send(text string) error
	IsAlive() bool
}

// Client builds ZB commands and writes them to a Sender. It holds no per-call
// state and is safe for concurrent use when the Sender is.
type Client struct {
	sender       Sender
	signer       *Signer
	safePassword core.Secret
	limiter      *ratelimit.RateLimiter
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewClient validates config and returns a Client writing to sender. A nil
// config means core.DefaultConfig(). Without credentials only public channel
// commands are available.
func NewClient(config *core.Config, sender Sender) (*Client, error) {
	if config == nil {
		config = core.DefaultConfig()
	}
	if sender == nil {
		return nil, core.NewErrorf(core.ErrorTypeConfiguration, "new client", "sender is required")
	}
	if err := config.Validate(); err != nil {
		return nil, core.NewError(core.ErrorTypeConfiguration, "new client", err)
	}

	c := &Client{
		sender:  sender,
		limiter: ratelimit.New(config.RateLimitRequests, config.RateLimitPeriod),
		logger:  zerolog.Nop(),
	}

	if creds := config.Credentials; creds != nil && creds.AccessKey != "" {
		signer, err := NewSigner(creds, config.DigestAlgorithm)
		if err != nil {
			return nil, err
		}
		c.signer = signer
		c.safePassword = creds.SafePassword
	}
	return c, nil
}

// SetLogger configures the logger for the client.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// SetMetrics attaches collectors counting commands and errors.
func (c *Client) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// RateLimiter returns the outbound throttle, or nil when disabled.
func (c *Client) RateLimiter() *ratelimit.RateLimiter {
	return c.limiter
}

// ChannelName returns "<lowercased coin>_<operation>". Account-wide
// operations have no coin prefix.
func ChannelName(coin string, op core.Operation) string {
	if op == core.OpGetAccountInfo {
		return op.String()
	}
	return strings.ToLower(coin) + "_" + op.String()
}

// AddChannel subscribes to channel, e.g. "ltcbtc_depth". The frame carries
// neither accesskey nor sign.
func (c *Client) AddChannel(ctx context.Context, channel string) error {
	return c.channel(ctx, EventAddChannel, channel)
}

// RemoveChannel unsubscribes from channel.
func (c *Client) RemoveChannel(ctx context.Context, channel string) error {
	return c.channel(ctx, EventRemoveChannel, channel)
}

// SubscribeTicker subscribes to the ticker of market, e.g. "ltcbtc".
func (c *Client) SubscribeTicker(ctx context.Context, market string) error {
	return c.subscribe(ctx, market, core.OpTicker)
}

// SubscribeDepth subscribes to the order book depth of market.
func (c *Client) SubscribeDepth(ctx context.Context, market string) error {
	return c.subscribe(ctx, market, core.OpDepth)
}

// SubscribeTrades subscribes to the trade history of market.
func (c *Client) SubscribeTrades(ctx context.Context, market string) error {
	return c.subscribe(ctx, market, core.OpTrades)
}

// Order places a limit order.
func (c *Client) Order(ctx context.Context, req OrderRequest) error {
	op := core.OpOrder
	if err := c.checkAlive(op.String()); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return c.fail(err)
	}
	return c.command(ctx, op, req.Coin, func(p *Payload) {
		p.Set("price", FormatDecimal(req.Price))
		p.Set("amount", FormatDecimal(req.Amount))
		p.Set("tradeType", int(req.TradeType))
	})
}

// CancelOrder cancels the order with the given id.
func (c *Client) CancelOrder(ctx context.Context, coin string, id int64) error {
	return c.byID(ctx, core.OpCancelOrder, coin, id)
}

// GetOrder fetches the order with the given id.
func (c *Client) GetOrder(ctx context.Context, coin string, id int64) error {
	return c.byID(ctx, core.OpGetOrder, coin, id)
}

// GetOrders fetches a page of ten orders on one side of the book.
func (c *Client) GetOrders(ctx context.Context, coin string, tradeType core.TradeType, pageIndex int) error {
	op := core.OpGetOrders
	q := ordersQuery{Coin: coin, TradeType: tradeType, PageIndex: pageIndex}
	return c.query(ctx, op, coin, q, func(p *Payload) {
		p.Set("tradeType", int(tradeType))
		p.Set("pageIndex", pageIndex)
	})
}

// GetOrdersNew fetches up to pageSize orders on one side of the book.
func (c *Client) GetOrdersNew(ctx context.Context, coin string, tradeType core.TradeType, pageIndex, pageSize int) error {
	op := core.OpGetOrdersNew
	q := ordersPageQuery{Coin: coin, TradeType: tradeType, PageIndex: pageIndex, PageSize: pageSize}
	return c.query(ctx, op, coin, q, func(p *Payload) {
		p.Set("tradeType", int(tradeType))
		p.Set("pageIndex", pageIndex)
		p.Set("pageSize", pageSize)
	})
}

// GetOrdersIgnoreTradeType fetches up to pageSize buy and sell orders.
func (c *Client) GetOrdersIgnoreTradeType(ctx context.Context, coin string, pageIndex, pageSize int) error {
	return c.paged(ctx, core.OpGetOrdersIgnoreTradeType, coin, pageIndex, pageSize)
}

// GetUnfinishedOrdersIgnoreTradeType fetches up to pageSize open or partially
// filled orders.
func (c *Client) GetUnfinishedOrdersIgnoreTradeType(ctx context.Context, coin string, pageIndex, pageSize int) error {
	return c.paged(ctx, core.OpGetUnfinishedOrdersIgnoreTradeType, coin, pageIndex, pageSize)
}

// GetUserAddress fetches the deposit address of coin.
func (c *Client) GetUserAddress(ctx context.Context, coin string) error {
	return c.query(ctx, core.OpGetUserAddress, coin, coinQuery{Coin: coin}, nil)
}

// GetWithdrawAddress fetches the verified withdrawal address of coin.
func (c *Client) GetWithdrawAddress(ctx context.Context, coin string) error {
	return c.query(ctx, core.OpGetWithdrawAddress, coin, coinQuery{Coin: coin}, nil)
}

// GetWithdrawRecord fetches a page of withdrawal records.
func (c *Client) GetWithdrawRecord(ctx context.Context, coin string, pageIndex, pageSize int) error {
	return c.paged(ctx, core.OpGetWithdrawRecord, coin, pageIndex, pageSize)
}

// CancelWithdraw cancels a pending withdrawal. The safe password is sent.
func (c *Client) CancelWithdraw(ctx context.Context, coin, downloadID string) error {
	op := core.OpCancelWithdraw
	q := cancelWithdrawQuery{Coin: coin, DownloadID: downloadID}
	return c.query(ctx, op, coin, q, func(p *Payload) {
		p.Set("downloadId", downloadID)
		p.Set("safePwd", c.safePassword.Reveal())
	})
}

// Withdraw requests a withdrawal. The safe password is sent.
func (c *Client) Withdraw(ctx context.Context, req WithdrawRequest) error {
	op := core.OpWithdraw
	if err := c.checkAlive(op.String()); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return c.fail(err)
	}
	return c.command(ctx, op, req.Coin, func(p *Payload) {
		p.Set("amount", FormatDecimal(req.Amount))
		p.Set("fees", FormatDecimal(req.Fees))
		p.Set("receiveAddr", req.ReceiveAddr)
		p.Set("safePwd", c.safePassword.Reveal())
	})
}

// GetAccountInfo fetches balances for the whole account.
func (c *Client) GetAccountInfo(ctx context.Context) error {
	op := core.OpGetAccountInfo
	if err := c.checkAlive(op.String()); err != nil {
		return err
	}
	return c.command(ctx, op, "", func(p *Payload) {
		p.Set("no", nil)
	})
}

func (c *Client) subscribe(ctx context.Context, market string, op core.Operation) error {
	if err := c.checkAlive(op.String()); err != nil {
		return err
	}
	if err := validateQuery(op.String(), coinQuery{Coin: market}); err != nil {
		return c.fail(err)
	}
	return c.write(ctx, op.String(), NewPayload(EventAddChannel, ChannelName(market, op)))
}

func (c *Client) channel(ctx context.Context, event, channel string) error {
	if err := c.checkAlive(event); err != nil {
		return err
	}
	channel = strings.TrimSpace(channel)
	if err := validateQuery(event, channelQuery{Channel: channel}); err != nil {
		return c.fail(err)
	}
	return c.write(ctx, event, NewPayload(event, channel))
}

func (c *Client) byID(ctx context.Context, op core.Operation, coin string, id int64) error {
	return c.query(ctx, op, coin, idQuery{Coin: coin, ID: id}, func(p *Payload) {
		p.Set("id", id)
	})
}

func (c *Client) paged(ctx context.Context, op core.Operation, coin string, pageIndex, pageSize int) error {
	q := pageQuery{Coin: coin, PageIndex: pageIndex, PageSize: pageSize}
	return c.query(ctx, op, coin, q, func(p *Payload) {
		p.Set("pageIndex", pageIndex)
		p.Set("pageSize", pageSize)
	})
}

// query runs the alive check and struct validation shared by the signed
// commands, then builds and sends the command.
func (c *Client) query(ctx context.Context, op core.Operation, coin string, q any, fields func(*Payload)) error {
	if err := c.checkAlive(op.String()); err != nil {
		return err
	}
	if err := validateQuery(op.String(), q); err != nil {
		return c.fail(err)
	}
	return c.command(ctx, op, coin, fields)
}

// command builds a signed payload: event, channel, accesskey, then the
// operation fields in the order fields sets them, then sign.
func (c *Client) command(ctx context.Context, op core.Operation, coin string, fields func(*Payload)) error {
	if c.signer == nil {
		return c.fail(core.NewError(core.ErrorTypeConfiguration, op.String(), core.ErrNoCredentials))
	}
	if op.RequiresSafePassword() && c.safePassword == "" {
		return c.fail(core.NewError(core.ErrorTypeConfiguration, op.String(), core.ErrNoSafePassword))
	}

	p := NewPayload(EventAddChannel, ChannelName(coin, op))
	p.Set(KeyAccessKey, c.signer.AccessKey())
	if fields != nil {
		fields(p)
	}

	text, err := c.signer.Sign(p)
	if err != nil {
		return c.fail(err)
	}
	return c.send(ctx, op.String(), text)
}

func (c *Client) write(ctx context.Context, op string, p *Payload) error {
	b, err := p.MarshalJSON()
	if err != nil {
		return c.fail(err)
	}
	return c.send(ctx, op, string(b))
}

func (c *Client) send(ctx context.Context, op, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit wait: %w", op, err)
	}
	if err := c.sender.Send(text); err != nil {
		return c.fail(err)
	}

	c.metrics.CommandSent(op)
	c.logger.Debug().Str("operation", op).Msg("command sent")
	return nil
}

func (c *Client) checkAlive(op string) error {
	if !c.sender.IsAlive() {
		return c.fail(core.ChannelNotActive(op))
	}
	return nil
}

func (c *Client) fail(err error) error {
	c.metrics.Error(core.TypeOf(err).String())
	c.logger.Warn().Err(err).Msg("command rejected")
	return err
}
