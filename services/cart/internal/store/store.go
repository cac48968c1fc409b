// Package store holds the line items of one shopping session.
//
// Store never fails on user input: unknown ids, quantities below one and
// repeated removals are no-ops, and quantities are clamped to known stock.
// Every change is reported to subscribers with a copy of the items, which is
// how persistence and event publication hook in.
package store

import (
	"sync"

	"github.com/Skotchmaster/market_cart/services/cart/internal/models"
	"github.com/Skotchmaster/market_cart/services/cart/internal/stock"
	"github.com/google/uuid"
)

type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
	OpStock  Op = "stock"
	OpOrder  Op = "order"
)

type Change struct {
	Op    Op
	Items []models.LineItem
}

// Listener is called while the store lock is held, so listeners see changes
// in mutation order. A listener must not call back into the store.
type Listener func(Change)

type Store struct {
	mu        sync.Mutex
	items     []models.LineItem
	listeners map[int]Listener
	nextID    int
}

func New(items []models.LineItem) *Store {
	s := &Store{listeners: make(map[int]Listener)}
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		s.items = append(s.items, it.Clone())
	}
	return s
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) Items() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Find(productID uuid.UUID, variationID *uuid.UUID) (models.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(productID, variationID); i >= 0 {
		return s.items[i].Clone(), true
	}
	return models.LineItem{}, false
}

// AddItem increments the quantity of an existing (product, variation) line or
// appends item as a new line. The item's AvailableStock replaces the stored
// figure because it is the freshest one the caller has.
func (s *Store) AddItem(item models.LineItem, quantity int) bool {
	if quantity < 1 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(item.ProductID, item.VariationID); i >= 0 {
		cur := &s.items[i]
		stockChanged := false
		if item.AvailableStock != nil && (cur.AvailableStock == nil || *cur.AvailableStock != *item.AvailableStock) {
			avail := *item.AvailableStock
			cur.AvailableStock = &avail
			stockChanged = true
		}
		next := stock.Clamp(cur.Quantity+quantity, cur.AvailableStock)
		if next == cur.Quantity && !stockChanged {
			return false
		}
		cur.Quantity = next
		s.notify(OpAdd)
		return true
	}

	line := item.Clone()
	line.Quantity = stock.Clamp(quantity, line.AvailableStock)
	s.items = append(s.items, line)
	s.notify(OpAdd)
	return true
}

func (s *Store) UpdateQuantity(productID uuid.UUID, quantity int, variationID *uuid.UUID) bool {
	if quantity < 1 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(productID, variationID)
	if i < 0 {
		return false
	}
	next := stock.Clamp(quantity, s.items[i].AvailableStock)
	if next == s.items[i].Quantity {
		return false
	}
	s.items[i].Quantity = next
	s.notify(OpUpdate)
	return true
}

// RemoveItem deletes the matching line and returns it.
func (s *Store) RemoveItem(productID uuid.UUID, variationID *uuid.UUID) (models.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(productID, variationID)
	if i < 0 {
		return models.LineItem{}, false
	}
	removed := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.notify(OpRemove)
	return removed, true
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return
	}
	s.items = nil
	s.notify(OpClear)
}

// Consume takes ordered quantities out of the cart. A line whose quantity is
// covered by the order is removed; a line that grew since is reduced by the
// ordered amount. Lines that are not in ordered stay untouched.
func (s *Store) Consume(ordered []models.LineItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, o := range ordered {
		i := s.index(o.ProductID, o.VariationID)
		if i < 0 || o.Quantity < 1 {
			continue
		}
		if s.items[i].Quantity <= o.Quantity {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			s.items[i].Quantity -= o.Quantity
		}
		changed = true
	}
	if changed {
		s.notify(OpOrder)
	}
	return changed
}

// SetAvailableStock records a fresh stock figure without touching the
// quantity, so a line may become out of stock.
func (s *Store) SetAvailableStock(productID uuid.UUID, variationID *uuid.UUID, available *int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(productID, variationID)
	if i < 0 {
		return false
	}
	cur := s.items[i].AvailableStock
	if (cur == nil && available == nil) || (cur != nil && available != nil && *cur == *available) {
		return false
	}
	if available == nil {
		s.items[i].AvailableStock = nil
	} else {
		v := *available
		s.items[i].AvailableStock = &v
	}
	s.notify(OpStock)
	return true
}

func (s *Store) index(productID uuid.UUID, variationID *uuid.UUID) int {
	for i := range s.items {
		if s.items[i].Matches(productID, variationID) {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []models.LineItem {
	out := make([]models.LineItem, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

func (s *Store) notify(op Op) {
	if len(s.listeners) == 0 {
		return
	}
	ch := Change{Op: op, Items: s.snapshot()}
	for _, l := range s.listeners {
		l(ch)
	}
}
