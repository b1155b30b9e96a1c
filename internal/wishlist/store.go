// Package wishlist keeps the set of liked products, one entry per product,
// and mirrors it to a persisted snapshot.
package wishlist

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/pkg/logger"
)

const storeName = "wishlist"

// Persister is satisfied by persist.Syncer[Item].
type Persister interface {
	Load(ctx context.Context) ([]Item, error)
	Schedule(items []Item)
}

type StoreParams struct {
	Persister Persister
	Logger    *logger.Logger
}

// Store is safe for concurrent use. Adds are idempotent per product and
// removals of absent products are no-ops.
type Store struct {
	mu        sync.Mutex
	items     items
	hydrated  bool
	replay    []func(items) items
	persister Persister
	logg      *logger.Logger
}

func NewStore(params StoreParams) *Store {
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		items:     items{},
		hydrated:  params.Persister == nil,
		persister: params.Persister,
		logg:      logg,
	}
}

// Hydrate loads the persisted wishlist once and replays anything changed in
// the meantime. Load failures leave the wishlist empty.
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
		s.logg.Error(ctx, "error loading wishlist from storage", err)
		loaded = nil
	}
	base, dropped := dedupe(loaded)
	if dropped > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "dropped", dropped), "discarded duplicate wishlist entries")
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

	s.logg.Info(s.logg.WithField(ctx, "items", len(s.items)), "wishlist hydrated")
	return len(s.items)
}

func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// AddItem inserts item unless its product is already liked. It reports
// whether the wishlist changed.
func (s *Store) AddItem(item Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, added := s.items.add(item)
	s.commitLocked(next, added, func(l items) items {
		l, _ = l.add(item)
		return l
	})
	return added
}

func (s *Store) RemoveItem(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, removed := s.items.remove(productID)
	s.commitLocked(next, removed, func(l items) items {
		l, _ = l.remove(productID)
		return l
	})
	return removed
}

// Toggle adds item when absent and removes it when present. It returns the
// product's membership afterwards. Before Hydrate completes the decision is
// taken again against the loaded snapshot, so the returned value is
// provisional until then.
func (s *Store) Toggle(item Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, liked := s.items.toggle(item)
	s.commitLocked(next, true, func(l items) items {
		l, _ = l.toggle(item)
		return l
	})
	return liked
}

func (s *Store) IsInWishlist(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.find(productID) >= 0
}

// ClearWishlist empties the wishlist and returns the number of entries removed.
func (s *Store) ClearWishlist() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	s.commitLocked(items{}, n > 0, func(items) items { return items{} })
	return n
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Items returns a copy in the order products were liked.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.clone()
}

func (s *Store) commitLocked(next items, changed bool, op func(items) items) {
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
