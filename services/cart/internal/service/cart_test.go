package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Skotchmaster/market_cart/services/cart/internal/catalog"
	"github.com/Skotchmaster/market_cart/services/cart/internal/checkout"
	"github.com/Skotchmaster/market_cart/services/cart/internal/coupon"
	"github.com/Skotchmaster/market_cart/services/cart/internal/models"
	"github.com/Skotchmaster/market_cart/services/cart/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sid = "guest:7c0f7c3e-1111-4a4a-9c9c-000000000001"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intp(v int) *int { return &v }

func fixed(code, rate string) coupon.Resolution {
	return coupon.Resolution{Accepted: true, Coupon: &models.Coupon{Code: code, Type: models.DiscountFixed, Rate: dec(rate)}}
}

func percentage(code, rate string) coupon.Resolution {
	return coupon.Resolution{Accepted: true, Coupon: &models.Coupon{Code: code, Type: models.DiscountPercentage, Rate: dec(rate)}}
}

func assertTotals(t *testing.T, v CartView, subtotal, discount, total string) {
	t.Helper()
	assert.Equal(t, subtotal, v.Subtotal.StringFixed(2), "subtotal")
	assert.Equal(t, discount, v.Discount.StringFixed(2), "discount")
	assert.Equal(t, total, v.Total.StringFixed(2), "total")
}

func TestScenarioA_NoCoupon(t *testing.T) {
	f := newFixture()
	pid := f.product("Shirt", "50", nil)

	v, err := f.svc.AddItem(context.Background(), sid, pid, nil, 2)
	require.NoError(t, err)
	assertTotals(t, v, "100.00", "0.00", "100.00")
	assert.True(t, v.CanCheckout)
}

func TestScenarioB_FixedCoupon(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("Shirt", "50", nil)
	f.coupons.replies["TWENTY"] = resolveReply{res: fixed("TWENTY", "20")}

	_, err := f.svc.AddItem(ctx, sid, pid, nil, 2)
	require.NoError(t, err)
	out, err := f.svc.ApplyCoupon(ctx, sid, "TWENTY")
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assertTotals(t, out.Cart, "100.00", "20.00", "80.00")
}

func TestScenarioC_PercentageCoupon(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("Lamp", "100", nil)
	f.coupons.replies["P15"] = resolveReply{res: percentage("P15", "15")}

	_, err := f.svc.AddItem(ctx, sid, pid, nil, 1)
	require.NoError(t, err)
	out, err := f.svc.ApplyCoupon(ctx, sid, "P15")
	require.NoError(t, err)
	assertTotals(t, out.Cart, "100.00", "15.00", "85.00")
}

func TestScenarioD_StockClampAndRefresh(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("Candle", "10", intp(3))

	v, err := f.svc.AddItem(ctx, sid, pid, nil, 5)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 3, v.Items[0].Quantity)
	assert.False(t, v.Items[0].OutOfStock)
	assert.True(t, v.CanCheckout)

	f.catalog.setStock(pid, 2)
	v, err = f.svc.RefreshStock(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Items[0].Quantity)
	assert.True(t, v.Items[0].OutOfStock)
	assert.False(t, v.CanCheckout)
	assert.Equal(t, pricing.ReasonOutOfStock, v.Reason)
}

func TestScenarioE_ExpiredCoupon(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("Shirt", "50", nil)
	f.coupons.replies["EXPIRED1"] = resolveReply{res: coupon.Resolution{Reason: "Coupon has expired"}}

	_, err := f.svc.AddItem(ctx, sid, pid, nil, 2)
	require.NoError(t, err)
	out, err := f.svc.ApplyCoupon(ctx, sid, "EXPIRED1")
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, "Coupon has expired", out.Message)
	assert.Nil(t, out.Cart.Coupon)
	assertTotals(t, out.Cart, "100.00", "0.00", "100.00")
}

func TestApplyCoupon_RejectionKeepsPreviousCoupon(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("Shirt", "50", nil)
	f.coupons.replies["TWENTY"] = resolveReply{res: fixed("TWENTY", "20")}
	f.coupons.replies["P15"] = resolveReply{res: percentage("P15", "15")}

	_, err := f.svc.AddItem(ctx, sid, pid, nil, 2)
	require.NoError(t, err)
	_, err = f.svc.ApplyCoupon(ctx, sid, "TWENTY")
	require.NoError(t, err)

	out, err := f.svc.ApplyCoupon(ctx, sid, "NOPE")
	require.NoError(t, err)
	assert.False(t, out.Applied)
	require.NotNil(t, out.Cart.Coupon)
	assert.Equal(t, "TWENTY", out.Cart.Coupon.Code)

	out, err = f.svc.ApplyCoupon(ctx, sid, "P15")
	require.NoError(t, err)
	assert.Equal(t, "P15", out.Cart.Coupon.Code)
	assertTotals(t, out.Cart, "100.00", "15.00", "85.00")

	v, err := f.svc.RemoveCoupon(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, v.Coupon)
	assertTotals(t, v, "100.00", "0.00", "100.00")
}

func TestApplyCoupon_TransportFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.coupons.replies["DOWN"] = resolveReply{err: coupon.ErrUnavailable}

	_, err := f.svc.ApplyCoupon(ctx, sid, "DOWN")
	assert.ErrorIs(t, err, ErrUnavailable)

	v, err := f.svc.GetCart(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, v.Coupon)
}

func TestApplyCoupon_StaleResponseDiscarded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("Shirt", "50", nil)
	_, err := f.svc.AddItem(ctx, sid, pid, nil, 2)
	require.NoError(t, err)

	release := make(chan struct{})
	f.coupons.replies["SLOW"] = resolveReply{res: fixed("SLOW", "5")}
	f.coupons.replies["FAST"] = resolveReply{res: fixed("FAST", "20")}
	f.coupons.hold = map[string]chan struct{}{"SLOW": release}
	f.coupons.started = make(chan string, 2)

	slowErr := make(chan error, 1)
	go func() {
		_, err := f.svc.ApplyCoupon(ctx, sid, "SLOW")
		slowErr <- err
	}()
	require.Equal(t, "SLOW", <-f.coupons.started)

	out, err := f.svc.ApplyCoupon(ctx, sid, "FAST")
	require.NoError(t, err)
	assert.Equal(t, "FAST", <-f.coupons.started)
	assert.True(t, out.Applied)

	close(release)
	select {
	case err := <-slowErr:
		assert.ErrorIs(t, err, ErrStaleCoupon)
	case <-time.After(2 * time.Second):
		t.Fatal("slow apply did not return")
	}

	v, err := f.svc.GetCart(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, v.Coupon)
	assert.Equal(t, "FAST", v.Coupon.Code)
	assertTotals(t, v, "100.00", "20.00", "80.00")
}

func TestAddItem_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("Shirt", "50", nil)

	_, err := f.svc.AddItem(ctx, sid, pid, nil, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.AddItem(ctx, sid, uuid.Nil, nil, 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.AddItem(ctx, sid, uuid.New(), nil, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	missing := uuid.New()
	_, err = f.svc.AddItem(ctx, sid, pid, &missing, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	f.catalog.err = catalog.ErrUnavailable
	_, err = f.svc.AddItem(ctx, sid, pid, nil, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAddItem_VariationsAreSeparateLines(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	red := catalog.Variation{ID: uuid.New(), Color: "red", Stock: intp(1)}
	blue := catalog.Variation{ID: uuid.New(), Color: "blue", Price: func() *decimal.Decimal { d := dec("12"); return &d }()}
	pid := f.product("Mug", "10", intp(10), red, blue)

	_, err := f.svc.AddItem(ctx, sid, pid, &red.ID, 3)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, sid, pid, &blue.ID, 1)
	require.NoError(t, err)
	v, err := f.svc.AddItem(ctx, sid, pid, &blue.ID, 1)
	require.NoError(t, err)

	require.Len(t, v.Items, 2)
	assert.Equal(t, 1, v.Items[0].Quantity)
	assert.Equal(t, "red", v.Items[0].Color)
	assert.Equal(t, 2, v.Items[1].Quantity)
	assert.Equal(t, "24.00", v.Items[1].LineTotal.StringFixed(2))
	assertTotals(t, v, "34.00", "0.00", "34.00")
}

func TestUpdateRemoveClear(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product("A", "1.50", intp(4))
	b := f.product("B", "2", nil)

	_, err := f.svc.AddItem(ctx, sid, a, nil, 1)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, sid, b, nil, 1)
	require.NoError(t, err)

	v, err := f.svc.UpdateQuantity(ctx, sid, a, 9, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Items[0].Quantity)

	v, err = f.svc.UpdateQuantity(ctx, sid, a, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Items[0].Quantity)

	v, err = f.svc.RemoveItem(ctx, sid, a, nil)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	v, err = f.svc.RemoveItem(ctx, sid, a, nil)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)

	v, err = f.svc.Clear(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.False(t, v.CanCheckout)
	assert.Equal(t, pricing.ReasonEmpty, v.Reason)
}

func TestMutationsArePersistedAndPublished(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("A", "3", nil)

	_, err := f.svc.AddItem(ctx, sid, pid, nil, 2)
	require.NoError(t, err)
	_, err = f.svc.UpdateQuantity(ctx, sid, pid, 5, nil)
	require.NoError(t, err)

	saved := f.repo.saved(sid)
	require.Len(t, saved, 1)
	assert.Equal(t, 5, saved[0].Quantity)
	assert.Equal(t, []string{EventCartUpdated, EventCartUpdated}, f.events.Types())

	// No-op mutations are neither saved nor published.
	_, err = f.svc.RemoveItem(ctx, sid, uuid.New(), nil)
	require.NoError(t, err)
	assert.Len(t, f.events.Types(), 2)
}

func TestSessionsAreLoadedFromRepoAndIsolated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("A", "3", nil)
	f.repo.carts["user:1"] = []models.LineItem{{ProductID: pid, Title: "A", UnitPrice: dec("3"), Quantity: 4}}

	v, err := f.svc.GetCart(ctx, "user:1")
	require.NoError(t, err)
	assertTotals(t, v, "12.00", "0.00", "12.00")

	other, err := f.svc.GetCart(ctx, "user:2")
	require.NoError(t, err)
	assert.Empty(t, other.Items)

	_, err = f.svc.GetCart(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.loads)
}

func TestLoadFailureIsNotCached(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.repo.loadErr = errBoom

	_, err := f.svc.GetCart(ctx, sid)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, f.svc.Sessions.Len())

	f.repo.loadErr = nil
	_, err = f.svc.GetCart(ctx, sid)
	assert.NoError(t, err)
}

func TestMoveToWishlist(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("Shirt", "50", nil)

	_, err := f.svc.MoveToWishlist(ctx, sid, pid, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.AddItem(ctx, sid, pid, nil, 1)
	require.NoError(t, err)

	f.repo.wishErr = errBoom
	v, err := f.svc.MoveToWishlist(ctx, sid, pid, nil)
	assert.ErrorIs(t, err, errBoom)
	v, _ = f.svc.GetCart(ctx, sid)
	assert.Len(t, v.Items, 1)

	f.repo.wishErr = nil
	v, err = f.svc.MoveToWishlist(ctx, sid, pid, nil)
	require.NoError(t, err)
	assert.Empty(t, v.Items)

	list, err := f.svc.Wishlist(ctx, sid)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Shirt", list[0].Title)
}

func TestRefreshStock_DeletedProductIsOutOfStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("Gone", "5", nil)
	_, err := f.svc.AddItem(ctx, sid, pid, nil, 1)
	require.NoError(t, err)

	delete(f.catalog.products, pid)
	v, err := f.svc.RefreshStock(ctx, sid)
	require.NoError(t, err)
	assert.True(t, v.Items[0].OutOfStock)

	f.catalog.err = catalog.ErrUnavailable
	_, err = f.svc.RefreshStock(ctx, sid)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCheckout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("Shirt", "50", intp(5))
	f.coupons.replies["TWENTY"] = resolveReply{res: fixed("TWENTY", "20")}

	_, err := f.svc.AddItem(ctx, sid, pid, nil, 2)
	require.NoError(t, err)
	_, err = f.svc.ApplyCoupon(ctx, sid, "TWENTY")
	require.NoError(t, err)

	res, err := f.svc.Checkout(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.Equal(t, "80.00", res.Order.Total.StringFixed(2))
	assert.Empty(t, res.Cart.Items)
	assert.Nil(t, res.Cart.Coupon)
	assert.Equal(t, checkout.StatusIdle, res.Cart.CheckoutStatus)

	require.Len(t, f.orders.reqs, 1)
	sent := f.orders.reqs[0]
	assert.Equal(t, sid, sent.SessionID)
	assert.Equal(t, "TWENTY", sent.CouponCode)
	assert.Equal(t, "100.00", sent.Subtotal.StringFixed(2))
	assert.Contains(t, f.events.Types(), EventCartCheckedOut)
	assert.Empty(t, f.repo.saved(sid))
}

func TestCheckout_Blocked(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, sid)
	var blocked *BlockedError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, pricing.ReasonEmpty, blocked.Reason)
	assert.ErrorIs(t, err, checkout.ErrCheckoutBlocked)

	pid := f.product("Candle", "10", intp(3))
	_, err = f.svc.AddItem(ctx, sid, pid, nil, 3)
	require.NoError(t, err)
	f.catalog.setStock(pid, 1)
	_, err = f.svc.RefreshStock(ctx, sid)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, sid)
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, pricing.ReasonOutOfStock, blocked.Reason)
	assert.Empty(t, f.orders.reqs)
}

func TestCheckout_InFlightBlocksSecondSubmit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("Shirt", "50", nil)
	_, err := f.svc.AddItem(ctx, sid, pid, nil, 1)
	require.NoError(t, err)

	f.orders.entered = make(chan struct{}, 1)
	f.orders.release = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Checkout(ctx, sid)
		done <- err
	}()
	<-f.orders.entered

	v, err := f.svc.GetCart(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusSubmitting, v.CheckoutStatus)
	assert.False(t, v.CanCheckout)
	assert.Equal(t, pricing.ReasonInFlight, v.Reason)

	_, err = f.svc.Checkout(ctx, sid)
	var blocked *BlockedError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, pricing.ReasonInFlight, blocked.Reason)

	close(f.orders.release)
	require.NoError(t, <-done)
	assert.Len(t, f.orders.reqs, 1)
}

func TestCheckout_FailuresKeepCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pid := f.product("Shirt", "50", nil)
	_, err := f.svc.AddItem(ctx, sid, pid, nil, 1)
	require.NoError(t, err)

	f.orders.err = &checkout.RejectedError{Status: 422, Message: "product no longer sold"}
	_, err = f.svc.Checkout(ctx, sid)
	require.ErrorIs(t, err, checkout.ErrCheckoutRejected)
	var rej *checkout.RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "product no longer sold", rej.Message)

	f.orders.err = checkout.ErrUnavailable
	_, err = f.svc.Checkout(ctx, sid)
	assert.ErrorIs(t, err, ErrUnavailable)

	v, err := f.svc.GetCart(ctx, sid)
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)
	assert.Equal(t, checkout.StatusIdle, v.CheckoutStatus)
	assert.True(t, v.CanCheckout)
}

// holdCheckout starts a checkout that waits inside the order call until the
// returned release function is invoked.
func holdCheckout(t *testing.T, ctx context.Context, f *fixture) func() (CheckoutResult, error) {
	t.Helper()
	f.orders.entered = make(chan struct{}, 1)
	f.orders.release = make(chan struct{})
	type result struct {
		res CheckoutResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := f.svc.Checkout(ctx, sid)
		done <- result{res, err}
	}()
	<-f.orders.entered
	return func() (CheckoutResult, error) {
		close(f.orders.release)
		r := <-done
		return r.res, r.err
	}
}

func TestCheckout_KeepsLinesAddedWhileSubmitting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	shirt := f.product("Shirt", "50", nil)
	mug := f.product("Mug", "12", nil)
	_, err := f.svc.AddItem(ctx, sid, shirt, nil, 1)
	require.NoError(t, err)

	finish := holdCheckout(t, ctx, f)
	_, err = f.svc.AddItem(ctx, sid, mug, nil, 3)
	require.NoError(t, err)
	res, err := finish()
	require.NoError(t, err)

	require.Len(t, f.orders.reqs, 1)
	require.Len(t, f.orders.reqs[0].Lines, 1)
	assert.Equal(t, shirt, f.orders.reqs[0].Lines[0].ProductID)

	require.Len(t, res.Cart.Items, 1)
	assert.Equal(t, mug, res.Cart.Items[0].ProductID)
	assert.Equal(t, 3, res.Cart.Items[0].Quantity)
	assertTotals(t, res.Cart, "36.00", "0.00", "36.00")

	saved := f.repo.saved(sid)
	require.Len(t, saved, 1)
	assert.Equal(t, mug, saved[0].ProductID)
	assert.Equal(t, 3, saved[0].Quantity)
}

func TestCheckout_ReducesLinesGrownWhileSubmitting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	shirt := f.product("Shirt", "50", nil)
	_, err := f.svc.AddItem(ctx, sid, shirt, nil, 1)
	require.NoError(t, err)

	finish := holdCheckout(t, ctx, f)
	_, err = f.svc.UpdateQuantity(ctx, sid, shirt, 3, nil)
	require.NoError(t, err)
	res, err := finish()
	require.NoError(t, err)

	require.Len(t, f.orders.reqs, 1)
	assert.Equal(t, 1, f.orders.reqs[0].Lines[0].Quantity)
	require.Len(t, res.Cart.Items, 1)
	assert.Equal(t, 2, res.Cart.Items[0].Quantity)
	require.Len(t, f.repo.saved(sid), 1)
	assert.Equal(t, 2, f.repo.saved(sid)[0].Quantity)
}

func TestCheckout_KeepsCouponAppliedWhileSubmitting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	shirt := f.product("Shirt", "50", nil)
	f.coupons.replies["TWENTY"] = resolveReply{res: fixed("TWENTY", "20")}
	f.coupons.replies["TENOFF"] = resolveReply{res: percentage("TENOFF", "10")}
	_, err := f.svc.AddItem(ctx, sid, shirt, nil, 2)
	require.NoError(t, err)
	_, err = f.svc.ApplyCoupon(ctx, sid, "TWENTY")
	require.NoError(t, err)

	finish := holdCheckout(t, ctx, f)
	_, err = f.svc.AddItem(ctx, sid, shirt, nil, 1)
	require.NoError(t, err)
	out, err := f.svc.ApplyCoupon(ctx, sid, "TENOFF")
	require.NoError(t, err)
	require.True(t, out.Applied)
	res, err := finish()
	require.NoError(t, err)

	assert.Equal(t, "TWENTY", f.orders.reqs[0].CouponCode)
	require.NotNil(t, res.Cart.Coupon)
	assert.Equal(t, "TENOFF", res.Cart.Coupon.Code)
	assertTotals(t, res.Cart, "50.00", "5.00", "45.00")
}

func TestCheckout_ReappliedCouponSurvives(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	shirt := f.product("Shirt", "50", nil)
	f.coupons.replies["TWENTY"] = resolveReply{res: fixed("TWENTY", "20")}
	_, err := f.svc.AddItem(ctx, sid, shirt, nil, 1)
	require.NoError(t, err)
	_, err = f.svc.ApplyCoupon(ctx, sid, "TWENTY")
	require.NoError(t, err)

	finish := holdCheckout(t, ctx, f)
	_, err = f.svc.ApplyCoupon(ctx, sid, "TWENTY")
	require.NoError(t, err)
	res, err := finish()
	require.NoError(t, err)

	require.NotNil(t, res.Cart.Coupon)
	assert.Equal(t, "TWENTY", res.Cart.Coupon.Code)
}

func TestCheckout_CompletesAfterRequestIsCanceled(t *testing.T) {
	f := newFixture()
	shirt := f.product("Shirt", "50", nil)
	_, err := f.svc.AddItem(context.Background(), sid, shirt, nil, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	finish := holdCheckout(t, ctx, f)
	cancel()
	res, err := finish()
	require.NoError(t, err)

	require.NotNil(t, res.Order)
	assert.Len(t, f.orders.reqs, 1)
	assert.Empty(t, res.Cart.Items)
	assert.Empty(t, f.repo.saved(sid))
	assert.Contains(t, f.events.Types(), EventCartCheckedOut)
}

func TestCheckout_SubmitTimeout(t *testing.T) {
	f := newFixture()
	f.svc.SubmitTimeout = 20 * time.Millisecond
	ctx := context.Background()
	shirt := f.product("Shirt", "50", nil)
	_, err := f.svc.AddItem(ctx, sid, shirt, nil, 1)
	require.NoError(t, err)

	finish := holdCheckout(t, ctx, f)
	time.Sleep(50 * time.Millisecond)
	_, err = finish()
	assert.ErrorIs(t, err, ErrUnavailable)

	v, err := f.svc.GetCart(ctx, sid)
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)
}
