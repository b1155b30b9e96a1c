// Package cart owns the shopping cart: line items keyed by product and
// variant, stock-clamped quantities, derived totals, and a durable snapshot
// kept in sync through a Persister.
package cart

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

const storeName = "cart"

// Persister loads the last snapshot and accepts new ones without blocking.
// persist.Syncer[Item] satisfies it.
type Persister interface {
	Load(ctx context.Context) ([]Item, error)
	Schedule(items []Item)
}

// StoreParams groups dependencies for the cart store.
type StoreParams struct {
	// Persister is optional; without one the cart lives in memory only.
	Persister Persister
	Logger    *logger.Logger
}

// Store is safe for concurrent use. Every mutation applies to memory first
// and then hands a full snapshot to the persister.
//
// Until Hydrate completes nothing is persisted. Mutations made before then
// are recorded and replayed on top of the loaded snapshot, so none are lost.
// The Change and counts they return describe the pre-hydration cart only.
type Store struct {
	mu        sync.Mutex
	items     lines
	hydrated  bool
	replay    []func(lines) lines
	persister Persister
	logg      *logger.Logger
}

func NewStore(params StoreParams) *Store {
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		items:     lines{},
		hydrated:  params.Persister == nil,
		persister: params.Persister,
		logg:      logg,
	}
}

// Hydrate loads the persisted cart once. A failed or malformed load is
// logged and treated as an empty cart. It returns the item count afterwards.
func (s *Store) Hydrate(ctx context.Context) int {
	s.mu.Lock()
	if s.hydrated {
		n := len(s.items)
		s.mu.Unlock()
		return n
	}
	s.mu.Unlock()

	ctx = s.logg.WithStore(ctx, storeName)
	loaded, err := s.persister.Load(ctx)
	if err != nil {
		s.logg.Error(ctx, "error loading cart from storage", err)
		loaded = nil
	}
	base, dropped := sanitize(loaded)
	if dropped > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "dropped", dropped), "discarded unusable cart lines from snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return len(s.items)
	}
	for _, op := range s.replay {
		base = op(base)
	}
	s.items = base
	s.replay = nil
	s.hydrated = true
	s.persistLocked()

	s.logg.Info(s.logg.WithField(ctx, "items", len(s.items)), "cart hydrated")
	return len(s.items)
}

// Hydrated reports whether the persisted snapshot has been loaded.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// AddItem merges quantity into the line for in's product and variant,
// clamping the result to in.StockQuantity. A quantity <= 0 adds one unit.
// An input with no stock is never inserted.
func (s *Store) AddItem(in ItemInput, quantity int) Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, change := s.items.add(in, quantity)
	s.commitLocked(next, change.Changed, func(l lines) lines {
		l, _ = l.add(in, quantity)
		return l
	})
	return change
}

// RemoveItem deletes the line with id and reports whether it existed.
func (s *Store) RemoveItem(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, removed := s.items.remove(id)
	s.commitLocked(next, removed, func(l lines) lines {
		l, _ = l.remove(id)
		return l
	})
	return removed
}

// UpdateQuantity sets the line's quantity, clamped to its stock. A quantity
// <= 0 removes the line. Unknown ids are a no-op.
func (s *Store) UpdateQuantity(id string, quantity int) Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, change := s.items.update(id, quantity)
	s.commitLocked(next, change.Changed, func(l lines) lines {
		l, _ = l.update(id, quantity)
		return l
	})
	return change
}

// ClearCart empties the cart and returns how many lines were removed.
func (s *Store) ClearCart() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	s.commitLocked(lines{}, n > 0, func(lines) lines { return lines{} })
	return n
}

// RemoveLines takes the ordered quantities out of the cart in one step and
// returns how many lines were emptied. Units added after ordered was read
// stay in the cart.
func (s *Store) RemoveLines(ordered []Item) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]Item, len(ordered))
	copy(snapshot, ordered)
	before := s.items
	next, removed := s.items.subtract(snapshot)
	s.commitLocked(next, !sameLines(before, next), func(l lines) lines {
		l, _ = l.subtract(snapshot)
		return l
	})
	return removed
}

// TotalPrice is the sum of price times quantity over all lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, _ := Totals(s.items)
	return price
}

// TotalItems is the sum of quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, quantity := Totals(s.items)
	return quantity
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.clone()
}

func (s *Store) Item(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.items.find(id)
	if idx < 0 {
		return Item{}, false
	}
	return s.items[idx], true
}

func (s *Store) commitLocked(next lines, changed bool, op func(lines) lines) {
	s.items = next
	if !s.hydrated {
		s.replay = append(s.replay, op)
		return
	}
	if changed {
		s.persistLocked()
	}
}

func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	s.persister.Schedule(s.items.clone())
}
