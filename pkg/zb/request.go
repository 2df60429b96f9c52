package zb

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/go-playground/validator/v10"

	"zbws/pkg/core"
)

// MaxPageSize is the largest page the order and withdrawal queries accept.
const MaxPageSize = 100

var validate = validator.New()

// OrderRequest describes a limit order.
type OrderRequest struct {
	// Coin is the market, e.g. "ethbtc". It is lowercased before sending.
	Coin      string         `validate:"required,alphanum"`
	Price     *apd.Decimal   `validate:"required"`
	Amount    *apd.Decimal   `validate:"required"`
	TradeType core.TradeType `validate:"oneof=0 1"`
}

// Validate checks the request fields before anything is sent.
func (r *OrderRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return core.NewError(core.ErrorTypeInvalidRequest, core.OpOrder.String(), err)
	}
	if !isPositive(r.Price) {
		return core.NewErrorf(core.ErrorTypeInvalidRequest, core.OpOrder.String(), "price must be positive")
	}
	if !isPositive(r.Amount) {
		return core.NewErrorf(core.ErrorTypeInvalidRequest, core.OpOrder.String(), "amount must be positive")
	}
	return nil
}

// WithdrawRequest describes a withdrawal to an address verified on the exchange.
type WithdrawRequest struct {
	Coin        string       `validate:"required,alphanum"`
	Amount      *apd.Decimal `validate:"required"`
	Fees        *apd.Decimal `validate:"required"`
	ReceiveAddr string       `validate:"required"`
}

// Validate checks the request fields before anything is sent.
func (r *WithdrawRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return core.NewError(core.ErrorTypeInvalidRequest, core.OpWithdraw.String(), err)
	}
	if !isPositive(r.Amount) {
		return core.NewErrorf(core.ErrorTypeInvalidRequest, core.OpWithdraw.String(), "amount must be positive")
	}
	if !isNonNegative(r.Fees) {
		return core.NewErrorf(core.ErrorTypeInvalidRequest, core.OpWithdraw.String(), "fees must not be negative")
	}
	return nil
}

type coinQuery struct {
	Coin string `validate:"required,alphanum"`
}

type idQuery struct {
	Coin string `validate:"required,alphanum"`
	ID   int64  `validate:"gt=0"`
}

type pageQuery struct {
	Coin      string `validate:"required,alphanum"`
	PageIndex int    `validate:"min=1"`
	PageSize  int    `validate:"min=1,max=100"`
}

type ordersQuery struct {
	Coin      string         `validate:"required,alphanum"`
	TradeType core.TradeType `validate:"oneof=0 1"`
	PageIndex int            `validate:"min=1"`
}

type ordersPageQuery struct {
	Coin      string         `validate:"required,alphanum"`
	TradeType core.TradeType `validate:"oneof=0 1"`
	PageIndex int            `validate:"min=1"`
	PageSize  int            `validate:"min=1,max=100"`
}

type cancelWithdrawQuery struct {
	Coin       string `validate:"required,alphanum"`
	DownloadID string `validate:"required"`
}

type channelQuery struct {
	Channel string `validate:"required,printascii"`
}

func validateQuery(op string, q any) error {
	if err := validate.Struct(q); err != nil {
		return core.NewError(core.ErrorTypeInvalidRequest, op, err)
	}
	return nil
}
