package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Skotchmaster/market_cart/pkg/events"
	"github.com/Skotchmaster/market_cart/services/cart/internal/cache"
	"github.com/Skotchmaster/market_cart/services/cart/internal/checkout"
	"github.com/Skotchmaster/market_cart/services/cart/internal/models"
	"github.com/Skotchmaster/market_cart/services/cart/internal/pricing"
	"github.com/Skotchmaster/market_cart/services/cart/internal/store"
)

const EventCartUpdated = "cart_updated"

type CartRepo interface {
	LoadCart(ctx context.Context, sessionID string) ([]models.LineItem, error)
	SaveCart(ctx context.Context, sessionID string, items []models.LineItem) error
	AddToWishlist(ctx context.Context, entry *models.WishlistItem) error
	ListWishlist(ctx context.Context, sessionID string) ([]models.WishlistItem, error)
}

// CartCache is optional; a nil cache reads straight from the repo.
type CartCache interface {
	Get(ctx context.Context, sessionID string) ([]models.LineItem, error)
	Set(ctx context.Context, sessionID string, items []models.LineItem) error
	Delete(ctx context.Context, sessionID string) error
}

type session struct {
	id    string
	store *store.Store
	gate  checkout.Gate

	mu        sync.Mutex
	coupon    *models.Coupon
	couponGen uint64
	lastSeen  time.Time

	loaded  chan struct{}
	loadErr error
	unsub   []func()
}

func (s *session) appliedCoupon() *models.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coupon == nil {
		return nil
	}
	c := *s.coupon
	return &c
}

// Registry owns the in-memory state of every active cart session.
type Registry struct {
	Repo           CartRepo
	Cache          CartCache
	Events         events.Publisher
	Log            *slog.Logger
	PersistTimeout time.Duration
	Now            func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewRegistry(repo CartRepo, c CartCache, pub events.Publisher, logger *slog.Logger) *Registry {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		Repo:           repo,
		Cache:          c,
		Events:         pub,
		Log:            logger,
		PersistTimeout: 5 * time.Second,
		Now:            time.Now,
		sessions:       make(map[string]*session),
	}
}

// get returns the session, loading it from cache or repo on first use.
// Concurrent first requests for the same id share one load.
func (r *Registry) get(ctx context.Context, id string) (*session, error) {
	r.mu.Lock()
	if r.sessions == nil {
		r.sessions = make(map[string]*session)
	}
	s, ok := r.sessions[id]
	if !ok {
		s = &session{id: id, loaded: make(chan struct{})}
		r.sessions[id] = s
	}
	r.mu.Unlock()

	if !ok {
		r.load(ctx, s)
	}

	select {
	case <-s.loaded:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.loadErr != nil {
		return nil, s.loadErr
	}

	s.mu.Lock()
	s.lastSeen = r.Now()
	s.mu.Unlock()
	return s, nil
}

func (r *Registry) load(ctx context.Context, s *session) {
	defer close(s.loaded)

	items, err := r.fetch(ctx, s.id)
	if err != nil {
		s.loadErr = err
		r.mu.Lock()
		if r.sessions[s.id] == s {
			delete(r.sessions, s.id)
		}
		r.mu.Unlock()
		return
	}

	s.store = store.New(items)
	s.lastSeen = r.Now()
	s.unsub = append(s.unsub,
		s.store.Subscribe(r.persist(s.id)),
		s.store.Subscribe(r.publish(s)),
	)
}

func (r *Registry) fetch(ctx context.Context, id string) ([]models.LineItem, error) {
	if r.Cache != nil {
		items, err := r.Cache.Get(ctx, id)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.Log.Warn("cart_cache_error", "session", id, "op", "get", "error", err)
		}
	}

	items, err := r.Repo.LoadCart(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Cache != nil {
		if err := r.Cache.Set(ctx, id, items); err != nil {
			r.Log.Warn("cart_cache_error", "session", id, "op", "set", "error", err)
		}
	}
	return items, nil
}

// persist writes every change through to the repo and drops the cached copy.
// It runs under the store lock, so saves land in mutation order.
func (r *Registry) persist(id string) store.Listener {
	return func(ch store.Change) {
		ctx, cancel := context.WithTimeout(context.Background(), r.PersistTimeout)
		defer cancel()

		if err := r.Repo.SaveCart(ctx, id, ch.Items); err != nil {
			r.Log.Error("persist_cart_error", "session", id, "op", string(ch.Op), "error", err)
		}
		if r.Cache != nil {
			if err := r.Cache.Delete(ctx, id); err != nil {
				r.Log.Warn("cart_cache_error", "session", id, "op", "delete", "error", err)
			}
		}
	}
}

type cartUpdatedPayload struct {
	SessionID string            `json:"session_id"`
	Op        store.Op          `json:"op"`
	Items     []models.LineItem `json:"items"`
	Subtotal  string            `json:"subtotal"`
}

func (r *Registry) publish(s *session) store.Listener {
	return func(ch store.Change) {
		payload := cartUpdatedPayload{
			SessionID: s.id,
			Op:        ch.Op,
			Items:     ch.Items,
			Subtotal:  pricing.ComputeSubtotal(ch.Items).StringFixed(2),
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.PersistTimeout)
		defer cancel()
		if err := r.Events.Publish(ctx, events.TopicCart, events.New(EventCartUpdated, s.id, payload)); err != nil {
			r.Log.Error("publish_cart_error", "session", s.id, "type", EventCartUpdated, "error", err)
		}
	}
}

// Sweep evicts sessions idle for longer than ttl. Sessions with a checkout in
// flight are kept. It returns the number of evicted sessions.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.Now().Add(-ttl)

	r.mu.Lock()
	var evicted []*session
	for id, s := range r.sessions {
		select {
		case <-s.loaded:
		default:
			continue
		}
		if s.gate.Submitting() {
			continue
		}
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			evicted = append(evicted, s)
		}
	}
	r.mu.Unlock()

	for _, s := range evicted {
		for _, u := range s.unsub {
			u()
		}
	}
	return len(evicted)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
