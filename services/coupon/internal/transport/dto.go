package transport

import "time"

type ValidateRequest struct {
	Code string `json:"code"`
}

type Discount struct {
	Rate string `json:"discount_rate"`
	Type string `json:"discount_type"`
}

// ValidateResponse is the reply of POST /coupons/validate. Status is
// "success" or "error".
type ValidateResponse struct {
	Status   string    `json:"status"`
	Message  string    `json:"message,omitempty"`
	Code     string    `json:"code,omitempty"`
	IsActive *bool     `json:"is_active,omitempty"`
	Discount *Discount `json:"discount,omitempty"`
}

// Rates may be sent as JSON numbers or strings. Active defaults to true.
type CreateCouponRequest struct {
	Code       string     `json:"code"`
	Active     *bool      `json:"is_active"`
	Type       string     `json:"discount_type"`
	Rate       any        `json:"discount_rate"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
}

type PatchCouponRequest struct {
	Code       *string    `json:"code"`
	Active     *bool      `json:"is_active"`
	Type       *string    `json:"discount_type"`
	Rate       any        `json:"discount_rate"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
}
