package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/Skotchmaster/market_cart/pkg/events"
	"github.com/Skotchmaster/market_cart/services/cart/internal/catalog"
	"github.com/Skotchmaster/market_cart/services/cart/internal/checkout"
	"github.com/Skotchmaster/market_cart/services/cart/internal/coupon"
	"github.com/Skotchmaster/market_cart/services/cart/internal/models"
	"github.com/google/uuid"
)

type fakeRepo struct {
	mu       sync.Mutex
	carts    map[string][]models.LineItem
	wishlist map[string][]models.WishlistItem
	saves    int
	loads    int
	loadErr  error
	wishErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{carts: map[string][]models.LineItem{}, wishlist: map[string][]models.WishlistItem{}}
}

func (f *fakeRepo) LoadCart(_ context.Context, id string) ([]models.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]models.LineItem(nil), f.carts[id]...), nil
}

func (f *fakeRepo) SaveCart(_ context.Context, id string, items []models.LineItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.carts[id] = append([]models.LineItem(nil), items...)
	return nil
}

func (f *fakeRepo) AddToWishlist(_ context.Context, e *models.WishlistItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.wishErr != nil {
		return f.wishErr
	}
	e.ID = uuid.New()
	f.wishlist[e.SessionID] = append(f.wishlist[e.SessionID], *e)
	return nil
}

func (f *fakeRepo) ListWishlist(_ context.Context, id string) ([]models.WishlistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wishlist[id], nil
}

func (f *fakeRepo) saved(id string) []models.LineItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.carts[id]
}

type fakeCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]*catalog.Product
	err      error
}

func (f *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCatalog) setStock(id uuid.UUID, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[id].Stock = &n
}

type resolveReply struct {
	res coupon.Resolution
	err error
}

// fakeResolver answers per code. A code listed in hold blocks until its
// channel is closed; started receives the code when a call begins.
type fakeResolver struct {
	replies map[string]resolveReply
	hold    map[string]chan struct{}
	started chan string
}

func (f *fakeResolver) Resolve(ctx context.Context, code string) (coupon.Resolution, error) {
	if f.started != nil {
		f.started <- code
	}
	if ch, ok := f.hold[code]; ok {
		<-ch
	}
	r, ok := f.replies[code]
	if !ok {
		return coupon.Resolution{Reason: "invalid coupon code"}, nil
	}
	return r.res, r.err
}

type fakeOrders struct {
	mu      sync.Mutex
	reqs    []checkout.OrderRequest
	err     error
	release chan struct{}
	entered chan struct{}
}

func (f *fakeOrders) Submit(ctx context.Context, req checkout.OrderRequest) (*checkout.Order, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &checkout.Order{ID: uuid.New(), Status: "created", Total: req.Total}, nil
}

type fixture struct {
	svc     *CartService
	repo    *fakeRepo
	catalog *fakeCatalog
	coupons *fakeResolver
	orders  *fakeOrders
	events  *events.Recorder
}

func newFixture() *fixture {
	repo := newFakeRepo()
	rec := &events.Recorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		repo:    repo,
		catalog: &fakeCatalog{products: map[uuid.UUID]*catalog.Product{}},
		coupons: &fakeResolver{replies: map[string]resolveReply{}},
		orders:  &fakeOrders{},
		events:  rec,
	}
	f.svc = &CartService{
		Sessions: NewRegistry(repo, nil, rec, logger),
		Catalog:  f.catalog,
		Coupons:  f.coupons,
		Orders:   f.orders,
		Events:   rec,
		Log:      logger,
	}
	return f
}

func (f *fixture) product(name, price string, stock *int, variations ...catalog.Variation) uuid.UUID {
	id := uuid.New()
	f.catalog.products[id] = &catalog.Product{
		ID:         id,
		Name:       name,
		Price:      dec(price),
		Stock:      stock,
		Variations: variations,
	}
	return id
}

var errBoom = errors.New("boom")
