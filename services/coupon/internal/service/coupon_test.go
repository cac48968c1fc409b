package service

import (
	"context"
	"testing"
	"time"

	"github.com/Skotchmaster/market_cart/pkg/db"
	"github.com/Skotchmaster/market_cart/services/coupon/internal/models"
	"github.com/Skotchmaster/market_cart/services/coupon/internal/repo"
	"github.com/Skotchmaster/market_cart/services/coupon/internal/transport"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, now time.Time) *CouponService {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })
	return &CouponService{Repo: &repo.GormRepo{DB: gdb}, Now: func() time.Time { return now }}
}

func TestValidate_WindowBounds(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want error
	}{
		{"before window", from.Add(-time.Second), ErrNotYetValid},
		{"at start", from, nil},
		{"inside", from.Add(24 * time.Hour), nil},
		{"at end", until, ErrExpired},
		{"after", until.Add(time.Hour), ErrExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService(t, tc.now)
			_, err := svc.CreateCoupon(context.Background(), transport.CreateCouponRequest{
				Code: "WIN", Type: "fixed", Rate: "5", ValidFrom: &from, ValidUntil: &until,
			})
			require.NoError(t, err)

			c, err := svc.Validate(context.Background(), "win")
			if tc.want == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.want)
			}
			require.NotNil(t, c)
			assert.Equal(t, "WIN", c.Code)
		})
	}
}

func TestValidate_InactiveWinsOverWindow(t *testing.T) {
	until := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := newService(t, time.Now())
	inactive := false
	_, err := svc.CreateCoupon(context.Background(), transport.CreateCouponRequest{
		Code: "OLD", Type: "percentage", Rate: 10, Active: &inactive, ValidUntil: &until,
	})
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), "OLD")
	assert.ErrorIs(t, err, ErrInactive)
}

func TestCheckCoupon(t *testing.T) {
	pct := func(rate string) *models.Coupon {
		c := &models.Coupon{Type: models.DiscountPercentage}
		c.Rate = mustRate(t, rate)
		return c
	}
	assert.NoError(t, checkCoupon(pct("100")))
	assert.NoError(t, checkCoupon(pct("0.01")))
	assert.ErrorIs(t, checkCoupon(pct("100.01")), ErrValidation)
	assert.ErrorIs(t, checkCoupon(pct("0")), ErrValidation)

	fixed := &models.Coupon{Type: models.DiscountFixed, Rate: mustRate(t, "1000")}
	assert.NoError(t, checkCoupon(fixed))

	assert.ErrorIs(t, checkCoupon(&models.Coupon{Type: "bogus", Rate: mustRate(t, "1")}), ErrValidation)
}

func mustRate(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
