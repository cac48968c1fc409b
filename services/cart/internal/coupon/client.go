package coupon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

var ErrUnavailable = errors.New("coupon authority unavailable")

const validatePath = "/coupons/validate"

// authorityReply is the validation authority's answer. discount_rate arrives
// as a JSON number from some deployments and as a string from others.
type authorityReply struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	IsActive *bool  `json:"is_active"`
	Discount *struct {
		Rate any    `json:"discount_rate"`
		Type string `json:"discount_type"`
	} `json:"discount"`
}

type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[authorityReply]
	log     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json"),
		log: logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[authorityReply](gobreaker.Settings{
		Name:        "coupon-authority",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A shopper abandoning the request says nothing about the authority.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit_breaker_state", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// validate asks the authority about code. Only transport failures are
// returned as errors; a business rejection is a normal reply.
func (c *Client) validate(ctx context.Context, code string) (authorityReply, error) {
	reply, err := c.breaker.Execute(func() (authorityReply, error) {
		return c.call(ctx, code)
	})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return authorityReply{}, err
		}
		return authorityReply{}, fmt.Errorf("%v: %w", err, ErrUnavailable)
	}
	return reply, nil
}

func (c *Client) call(ctx context.Context, code string) (authorityReply, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"code": code}).
		Post(validatePath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return authorityReply{}, fmt.Errorf("do request: %w: %w", ctxErr, ErrUnavailable)
		}
		return authorityReply{}, fmt.Errorf("do request: %v: %w", err, ErrUnavailable)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return authorityReply{}, fmt.Errorf("status %d: %w", resp.StatusCode(), ErrUnavailable)
	}

	var reply authorityReply
	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	if err := dec.Decode(&reply); err != nil {
		return authorityReply{}, fmt.Errorf("decode response (status %d): %v: %w", resp.StatusCode(), err, ErrUnavailable)
	}
	return reply, nil
}
