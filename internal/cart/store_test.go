package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/persist"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPersister struct {
	mu        sync.Mutex
	loaded    []Item
	loadErr   error
	entered   chan struct{}
	release   chan struct{}
	scheduled [][]Item
}

func (p *stubPersister) Load(ctx context.Context) ([]Item, error) {
	if p.entered != nil {
		close(p.entered)
		<-p.release
	}
	return p.loaded, p.loadErr
}

func (p *stubPersister) Schedule(items []Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scheduled = append(p.scheduled, items)
}

func (p *stubPersister) writes() [][]Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]Item(nil), p.scheduled...)
}

func ptr(v int64) *int64 { return &v }

func input(productID int64, colorID, sizeID *int64, stock int, price int64) ItemInput {
	return ItemInput{
		ProductID:     productID,
		ProductName:   "Linen Shirt",
		Price:         decimal.NewFromInt(price),
		ColorID:       colorID,
		SizeID:        sizeID,
		StockQuantity: stock,
	}
}

func hydratedStore(t *testing.T) (*Store, *stubPersister) {
	t.Helper()
	p := &stubPersister{}
	s := NewStore(StoreParams{Persister: p})
	require.Equal(t, 0, s.Hydrate(context.Background()))
	return s, p
}

func TestItemID(t *testing.T) {
	assert.Equal(t, "7-none-none", ItemID(7, nil, nil))
	assert.Equal(t, "7-2-3", ItemID(7, ptr(2), ptr(3)))
	assert.Equal(t, "7-none-3", ItemID(7, ptr(0), ptr(3)))
}

func TestAddItemMergesSameVariant(t *testing.T) {
	s := NewStore(StoreParams{})
	in := input(1, ptr(2), ptr(3), 5, 100)

	first := s.AddItem(in, 2)
	second := s.AddItem(in, 2)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "1-2-3", items[0].ID)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, Change{ID: "1-2-3", Quantity: 2, Requested: 2, Changed: true}, first)
	assert.Equal(t, Change{ID: "1-2-3", Quantity: 4, Requested: 2, Changed: true}, second)
}

func TestAddItemClampsToStock(t *testing.T) {
	s := NewStore(StoreParams{})
	change := s.AddItem(input(1, nil, nil, 3, 100), 10)

	assert.Equal(t, 3, change.Quantity)
	assert.True(t, change.Clamped)
	item, ok := s.Item("1-none-none")
	require.True(t, ok)
	assert.Equal(t, 3, item.Quantity)

	again := s.AddItem(input(1, nil, nil, 3, 100), 1)
	assert.True(t, again.Clamped)
	assert.False(t, again.Changed)
	assert.Equal(t, 3, s.TotalItems())
}

func TestAddItemDistinctVariantsDoNotMerge(t *testing.T) {
	s := NewStore(StoreParams{})
	s.AddItem(input(1, ptr(1), ptr(1), 5, 100), 1)
	s.AddItem(input(1, ptr(2), ptr(1), 5, 100), 1)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1-1-1", items[0].ID)
	assert.Equal(t, "1-2-1", items[1].ID)
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	s := NewStore(StoreParams{})
	change := s.AddItem(input(9, nil, nil, 5, 10), 0)
	assert.Equal(t, 1, change.Requested)
	assert.Equal(t, 1, change.Quantity)
}

func TestAddItemWithoutStockIsNotInserted(t *testing.T) {
	s := NewStore(StoreParams{})
	change := s.AddItem(input(9, nil, nil, 0, 10), 2)
	assert.False(t, change.Changed)
	assert.True(t, change.Clamped)
	assert.Empty(t, s.Items())
}

func TestAddItemRefreshesStockOnMerge(t *testing.T) {
	s := NewStore(StoreParams{})
	s.AddItem(input(1, nil, nil, 2, 10), 2)
	s.AddItem(input(1, nil, nil, 6, 10), 3)

	item, _ := s.Item("1-none-none")
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 6, item.StockQuantity)

	change := s.UpdateQuantity(item.ID, 10)
	assert.Equal(t, 6, change.Quantity)
	assert.True(t, change.Clamped)
}

func TestUpdateQuantityToZeroRemoves(t *testing.T) {
	s := NewStore(StoreParams{})
	s.AddItem(input(1, nil, nil, 5, 100), 1)
	s.AddItem(input(2, nil, nil, 5, 100), 1)

	change := s.UpdateQuantity("1-none-none", 0)
	assert.True(t, change.Removed)
	assert.True(t, change.Changed)
	assert.Len(t, s.Items(), 1)

	missing := s.UpdateQuantity("1-none-none", -1)
	assert.False(t, missing.Removed)
	assert.False(t, missing.Changed)
}

func TestUpdateQuantityClampsAndIgnoresUnknown(t *testing.T) {
	s := NewStore(StoreParams{})
	s.AddItem(input(1, nil, nil, 4, 100), 1)

	change := s.UpdateQuantity("1-none-none", 9)
	assert.Equal(t, 4, change.Quantity)
	assert.True(t, change.Clamped)

	unknown := s.UpdateQuantity("404-none-none", 2)
	assert.False(t, unknown.Changed)
	assert.Equal(t, 0, unknown.Quantity)
	assert.Len(t, s.Items(), 1)
}

func TestRemoveItemAndClearCart(t *testing.T) {
	s := NewStore(StoreParams{})
	s.AddItem(input(1, nil, nil, 4, 100), 1)
	s.AddItem(input(2, nil, nil, 4, 100), 1)
	s.AddItem(input(3, nil, nil, 4, 100), 1)

	assert.True(t, s.RemoveItem("2-none-none"))
	assert.False(t, s.RemoveItem("2-none-none"))
	assert.Equal(t, 2, s.ClearCart())
	assert.Equal(t, 0, s.ClearCart())
	assert.Empty(t, s.Items())
}

func TestTotals(t *testing.T) {
	s := NewStore(StoreParams{})
	s.AddItem(input(1, nil, nil, 10, 100), 2)
	s.AddItem(input(2, nil, nil, 10, 50), 3)

	assert.True(t, s.TotalPrice().Equal(decimal.NewFromInt(350)), "got %s", s.TotalPrice())
	assert.Equal(t, 5, s.TotalItems())

	empty := NewStore(StoreParams{})
	assert.True(t, empty.TotalPrice().IsZero())
	assert.Equal(t, 0, empty.TotalItems())
}

func TestItemsReturnsCopy(t *testing.T) {
	s := NewStore(StoreParams{})
	s.AddItem(input(1, nil, nil, 10, 100), 2)

	items := s.Items()
	items[0].Quantity = 99
	item, _ := s.Item("1-none-none")
	assert.Equal(t, 2, item.Quantity)
}

func TestPersistsOnlyChangedStateAfterHydration(t *testing.T) {
	s, p := hydratedStore(t)
	require.Len(t, p.writes(), 1, "hydration writes the initial snapshot")

	s.AddItem(input(1, nil, nil, 1, 100), 1)
	s.AddItem(input(1, nil, nil, 1, 100), 1) // clamped, unchanged
	s.RemoveItem("nope")
	s.UpdateQuantity("1-none-none", 1)
	s.ClearCart()
	s.ClearCart()

	writes := p.writes()
	require.Len(t, writes, 3)
	assert.Len(t, writes[1], 1)
	assert.Empty(t, writes[2])
}

func TestHydrateSanitizesSnapshot(t *testing.T) {
	p := &stubPersister{loaded: []Item{
		{ID: "stale", ProductID: 1, ProductName: "A", Price: decimal.NewFromInt(10), Quantity: 5, StockQuantity: 3},
		{ID: "1-none-none", ProductID: 1, ProductName: "dup", Price: decimal.NewFromInt(10), Quantity: 1, StockQuantity: 3},
		{ProductID: 2, ProductName: "B", Price: decimal.NewFromInt(10), Quantity: 1, StockQuantity: 0},
		{ProductID: 3, ProductName: "C", Price: decimal.NewFromInt(-1), Quantity: 1, StockQuantity: 3},
		{ProductID: 4, ProductName: "D", Price: decimal.NewFromInt(20), Quantity: 2, StockQuantity: 3, ColorID: ptr(8)},
	}}
	s := NewStore(StoreParams{Persister: p})

	assert.Equal(t, 2, s.Hydrate(context.Background()))
	items := s.Items()
	assert.Equal(t, "1-none-none", items[0].ID)
	assert.Equal(t, "A", items[0].ProductName)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "4-8-none", items[1].ID)

	writes := p.writes()
	require.Len(t, writes, 1)
	assert.Len(t, writes[0], 2)
}

func TestHydrateLoadFailureStartsEmpty(t *testing.T) {
	p := &stubPersister{loadErr: errors.New("storage unavailable")}
	s := NewStore(StoreParams{Persister: p})

	assert.Equal(t, 0, s.Hydrate(context.Background()))
	assert.True(t, s.Hydrated())
	s.AddItem(input(1, nil, nil, 2, 5), 1)
	assert.Len(t, p.writes(), 2)
}

func TestMutationsBeforeHydrationAreReplayed(t *testing.T) {
	p := &stubPersister{
		loaded: []Item{
			{ID: "1-none-none", ProductID: 1, ProductName: "A", Price: decimal.NewFromInt(10), Quantity: 1, StockQuantity: 5},
			{ID: "2-none-none", ProductID: 2, ProductName: "B", Price: decimal.NewFromInt(10), Quantity: 1, StockQuantity: 5},
		},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := NewStore(StoreParams{Persister: p})

	done := make(chan int)
	go func() { done <- s.Hydrate(context.Background()) }()
	<-p.entered

	s.AddItem(input(1, nil, nil, 5, 10), 2)
	s.RemoveItem("2-none-none")
	s.AddItem(input(3, nil, nil, 5, 10), 1)
	assert.False(t, s.Hydrated())
	assert.Empty(t, p.writes(), "nothing is persisted before hydration")

	close(p.release)
	select {
	case n := <-done:
		assert.Equal(t, 2, n)
	case <-time.After(2 * time.Second):
		t.Fatal("hydrate did not finish")
	}

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1-none-none", items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "3-none-none", items[1].ID)

	writes := p.writes()
	require.Len(t, writes, 1)
	assert.Len(t, writes[0], 2)
}

func TestHydrateIsOneShot(t *testing.T) {
	s, p := hydratedStore(t)
	s.AddItem(input(1, nil, nil, 5, 10), 1)
	assert.Equal(t, 1, s.Hydrate(context.Background()))
	assert.Len(t, p.writes(), 2)
}

func TestConcurrentAddsAreLinearizable(t *testing.T) {
	s := NewStore(StoreParams{})
	in := input(1, nil, nil, 1000, 10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddItem(in, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.TotalItems())
}

func TestRoundTripThroughSyncer(t *testing.T) {
	ctx := context.Background()
	gw := persist.NewMemory()

	newStore := func() (*Store, *persist.Syncer[Item]) {
		syncer, err := persist.NewSyncer[Item](persist.SyncerParams{Gateway: gw, Key: persist.KeyCart})
		require.NoError(t, err)
		t.Cleanup(func() { _ = syncer.Close(ctx) })
		return NewStore(StoreParams{Persister: syncer}), syncer
	}

	before, syncer := newStore()
	before.Hydrate(ctx)
	img := "https://cdn.example.com/p/1.jpg"
	before.AddItem(ItemInput{ProductID: 1, ProductName: "Tee", Price: decimal.RequireFromString("199000.50"), ImageURL: img, ColorID: ptr(2), ColorName: "Red", SizeID: ptr(3), SizeName: "M", StockQuantity: 5}, 2)
	before.AddItem(input(4, nil, nil, 9, 120000), 3)
	require.NoError(t, syncer.Flush(ctx))

	after, _ := newStore()
	require.Equal(t, 2, after.Hydrate(ctx))

	want, got := before.Items(), after.Items()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].Price.Equal(got[i].Price))
		want[i].Price, got[i].Price = decimal.Zero, decimal.Zero
		assert.Equal(t, want[i], got[i])
	}
}

func TestRemoveLinesKeepsUnorderedUnits(t *testing.T) {
	s, p := hydratedStore(t)
	s.AddItem(input(1, nil, nil, 10, 100), 2)
	s.AddItem(input(4, nil, nil, 10, 50), 1)
	ordered := s.Items()

	// arrives while the order is in flight
	s.AddItem(input(1, nil, nil, 10, 100), 3)
	s.AddItem(input(9, nil, nil, 10, 20), 1)

	assert.Equal(t, 1, s.RemoveLines(ordered))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1-none-none", items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "9-none-none", items[1].ID)

	writes := len(p.writes())
	assert.Equal(t, 0, s.RemoveLines([]Item{{ID: "404-none-none", Quantity: 1}}))
	assert.Len(t, p.writes(), writes, "no-op removal is not persisted")
}

func TestRemoveLinesBeforeHydrationIsReplayed(t *testing.T) {
	p := &stubPersister{
		loaded: []Item{
			{ID: "1-none-none", ProductID: 1, ProductName: "A", Price: decimal.NewFromInt(10), Quantity: 4, StockQuantity: 5},
		},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := NewStore(StoreParams{Persister: p})

	done := make(chan int)
	go func() { done <- s.Hydrate(context.Background()) }()
	<-p.entered
	s.RemoveLines([]Item{{ID: "1-none-none", Quantity: 1}})
	close(p.release)
	<-done

	item, ok := s.Item("1-none-none")
	require.True(t, ok)
	assert.Equal(t, 3, item.Quantity)
}

func TestItemJSONWritesNumericPrice(t *testing.T) {
	item := input(1, ptr(2), nil, 5, 0).item(2)
	item.Price = decimal.RequireFromString("199000.5")

	raw, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":199000.5`)
	assert.Contains(t, string(raw), `"id":"1-2-none"`)

	var back Item
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Price.Equal(item.Price))
	assert.Equal(t, item.Quantity, back.Quantity)
}
