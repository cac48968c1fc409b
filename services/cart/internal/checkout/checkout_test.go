package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Skotchmaster/market_cart/services/cart/internal/models"
	"github.com/Skotchmaster/market_cart/services/cart/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate(t *testing.T) {
	var g Gate
	assert.Equal(t, StatusIdle, g.Status())
	require.True(t, g.Begin())
	assert.True(t, g.Submitting())
	assert.False(t, g.Begin())
	g.End()
	assert.Equal(t, StatusIdle, g.Status())
	assert.True(t, g.Begin())
}

func TestGate_OnlyOneConcurrentBegin(t *testing.T) {
	var g Gate
	var won atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Begin() {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), won.Load())
}

func sampleRequest() OrderRequest {
	items := []models.LineItem{{ProductID: uuid.New(), Title: "Shirt", UnitPrice: decimal.RequireFromString("50"), Quantity: 2}}
	coupon := &models.Coupon{Code: "TWENTY", Type: models.DiscountFixed, Rate: decimal.NewFromInt(20)}
	return NewOrderRequest("user:42", items, pricing.Compute(items, coupon), coupon)
}

func TestNewOrderRequest(t *testing.T) {
	req := sampleRequest()
	assert.Equal(t, "user:42", req.SessionID)
	assert.Equal(t, "TWENTY", req.CouponCode)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, 2, req.Lines[0].Quantity)
	assert.Equal(t, "100.00", req.Subtotal.StringFixed(2))
	assert.Equal(t, "80.00", req.Total.StringFixed(2))
}

func TestSubmit(t *testing.T) {
	orderID := uuid.New()
	var got OrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"` + orderID.String() + `","status":"created","total":"80.00","created_at":"2026-01-02T03:04:05Z"}`))
	}))
	defer srv.Close()

	order, err := NewOrderClient(srv.URL, time.Second).Submit(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, orderID, order.ID)
	assert.Equal(t, "80.00", order.Total.StringFixed(2))
	assert.Equal(t, "TWENTY", got.CouponCode)
	assert.Equal(t, "100.00", got.Subtotal.StringFixed(2))
}

func TestSubmit_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"subtotal does not match line items"}`))
	}))
	defer srv.Close()

	_, err := NewOrderClient(srv.URL, time.Second).Submit(context.Background(), sampleRequest())
	require.ErrorIs(t, err, ErrCheckoutRejected)
	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "subtotal does not match line items", rej.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, rej.Status)
}

func TestSubmit_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_, err := NewOrderClient(srv.URL, time.Second).Submit(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrUnavailable)

	srv.Close()
	_, err = NewOrderClient(srv.URL, time.Second).Submit(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRejectionMessage(t *testing.T) {
	assert.Equal(t, "bad", rejectionMessage([]byte(`{"message":"bad"}`)))
	assert.Equal(t, "worse", rejectionMessage([]byte(`{"error":"worse"}`)))
	assert.Equal(t, "plain", rejectionMessage([]byte(`"plain"`)))
	assert.Equal(t, "order was rejected", rejectionMessage([]byte(`<html>`)))
}
