// Package coupon validates coupon codes against the remote authority and turns
// its reply into a coupon the pricing code can apply.
package coupon

import (
	"context"
	"strings"

	"github.com/Skotchmaster/market_cart/pkg/money"
	"github.com/Skotchmaster/market_cart/services/cart/internal/models"
	"github.com/shopspring/decimal"
)

const (
	msgEmptyCode     = "coupon code is required"
	msgInvalid       = "invalid coupon code"
	msgInactive      = "coupon is not active"
	msgNotApplicable = "coupon cannot be applied"
	MsgRetry         = "could not validate coupon, please try again"
)

var hundred = decimal.NewFromInt(100)

// Resolution is the outcome of a validation the authority answered. Reason
// carries the authority's message when Accepted is false.
type Resolution struct {
	Accepted bool           `json:"accepted"`
	Reason   string         `json:"reason,omitempty"`
	Coupon   *models.Coupon `json:"coupon,omitempty"`
}

type Resolver struct {
	client *Client
}

func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve returns an error only when the authority could not be reached or
// gave an unreadable answer; that error wraps ErrUnavailable.
func (r *Resolver) Resolve(ctx context.Context, code string) (Resolution, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Resolution{Reason: msgEmptyCode}, nil
	}

	reply, err := r.client.validate(ctx, code)
	if err != nil {
		return Resolution{}, err
	}
	return interpret(code, reply), nil
}

func interpret(code string, reply authorityReply) Resolution {
	if strings.EqualFold(reply.Status, "error") {
		return rejected(reply.Message, msgInvalid)
	}
	if reply.IsActive != nil && !*reply.IsActive {
		return rejected(reply.Message, msgInactive)
	}
	if reply.Discount == nil {
		return rejected(reply.Message, msgNotApplicable)
	}

	kind := models.DiscountType(strings.ToLower(strings.TrimSpace(reply.Discount.Type)))
	rate, err := money.ParseAmount(reply.Discount.Rate)
	if err != nil || !kind.Valid() || !rate.IsPositive() {
		return rejected("", msgNotApplicable)
	}
	if kind == models.DiscountPercentage && rate.GreaterThan(hundred) {
		return rejected("", msgNotApplicable)
	}

	if reply.Code != "" {
		code = reply.Code
	}
	return Resolution{
		Accepted: true,
		Coupon:   &models.Coupon{Code: code, Type: kind, Rate: rate},
	}
}

func rejected(message, fallback string) Resolution {
	if strings.TrimSpace(message) == "" {
		message = fallback
	}
	return Resolution{Reason: message}
}
