// Package money coerces loosely typed price and quantity inputs into exact values.
//
// Prices and quantities reach the services from forms, JSON bodies and other
// services as either strings or numbers. Everything is parsed into
// decimal.Decimal (prices) or int (quantities) at the boundary, and amounts are
// rounded half away from zero to two decimal places.
package money

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const Places = 2

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Round rounds d to currency precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// ParseAmount accepts string, json.Number, float, int and decimal inputs.
func ParseAmount(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case *decimal.Decimal:
		if t == nil {
			return decimal.Zero, fmt.Errorf("nil amount: %w", ErrInvalidAmount)
		}
		return *t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return decimal.Zero, fmt.Errorf("empty amount: %w", ErrInvalidAmount)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("amount %q: %w", t, ErrInvalidAmount)
		}
		return d, nil
	case json.Number:
		return ParseAmount(string(t))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, fmt.Errorf("amount %v: %w", t, ErrInvalidAmount)
		}
		// NewFromFloat uses the shortest representation, so 19.99 stays 19.99.
		return decimal.NewFromFloat(t), nil
	case float32:
		return ParseAmount(float64(t))
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case int32:
		return decimal.NewFromInt(int64(t)), nil
	case uint:
		return decimal.NewFromInt(int64(t)), nil
	case nil:
		return decimal.Zero, fmt.Errorf("missing amount: %w", ErrInvalidAmount)
	default:
		return decimal.Zero, fmt.Errorf("amount of type %T: %w", v, ErrInvalidAmount)
	}
}

// ParseQuantity accepts whole numbers given as strings or numbers. "2.0" is 2,
// "2.5" is rejected.
func ParseQuantity(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case int32:
		return int(t), nil
	case uint:
		return int(t), nil
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil || !d.IsInteger() {
			return 0, fmt.Errorf("quantity %q: %w", t, ErrInvalidQuantity)
		}
		return int(d.IntPart()), nil
	case json.Number:
		return ParseQuantity(string(t))
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, fmt.Errorf("quantity %v: %w", t, ErrInvalidQuantity)
		}
		return int(t), nil
	case nil:
		return 0, fmt.Errorf("missing quantity: %w", ErrInvalidQuantity)
	default:
		return 0, fmt.Errorf("quantity of type %T: %w", v, ErrInvalidQuantity)
	}
}

// Quantity is an int that decodes from either a JSON number or a JSON string.
type Quantity int

func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*q = 0
		return nil
	}
	var raw any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("quantity: %w", ErrInvalidQuantity)
	}
	n, err := ParseQuantity(raw)
	if err != nil {
		return err
	}
	*q = Quantity(n)
	return nil
}

func (q Quantity) Int() int { return int(q) }
