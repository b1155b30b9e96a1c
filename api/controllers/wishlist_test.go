package controllers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/storefrontapi"
)

func wishlistRouter(store *wishlist.Store, catalog productCatalog) http.Handler {
	r := chi.NewRouter()
	r.Get("/wishlist", WishlistFetch(store, nil))
	r.Post("/wishlist/items", WishlistAddItem(store, nil))
	r.Post("/wishlist/products", WishlistAddProduct(store, catalog, nil))
	r.Get("/wishlist/items/{productId}", WishlistContains(store, nil))
	r.Delete("/wishlist/items/{productId}", WishlistRemoveItem(store, nil))
	r.Delete("/wishlist", WishlistClear(store, nil))
	return r
}

func TestWishlistAddIsIdempotent(t *testing.T) {
	store := wishlist.NewStore(wishlist.StoreParams{})
	h := wishlistRouter(store, nil)

	body := `{"product_id":3,"product_name":"Scarf","price":"90000","stock_quantity":1}`
	resp := serve(t, h, http.MethodPost, "/wishlist/items", body)
	expectStatus(t, resp, http.StatusOK)
	var first wishlistChangeResponse
	decodeData(t, resp, &first)
	if !first.Changed {
		t.Fatal("expected first add to change the wishlist")
	}

	resp = serve(t, h, http.MethodPost, "/wishlist/items", body)
	var second wishlistChangeResponse
	decodeData(t, resp, &second)
	if second.Changed || !second.InWishlist || second.Wishlist.TotalItems != 1 {
		t.Fatalf("unexpected second add %+v", second)
	}
}

func TestWishlistContainsAndRemove(t *testing.T) {
	store := wishlist.NewStore(wishlist.StoreParams{})
	store.AddItem(wishlist.Item{ProductID: 5, ProductName: "Belt", Price: decimal.NewFromInt(1)})
	h := wishlistRouter(store, nil)

	resp := serve(t, h, http.MethodGet, "/wishlist/items/5", "")
	expectStatus(t, resp, http.StatusOK)
	var contains struct {
		InWishlist bool `json:"in_wishlist"`
	}
	decodeData(t, resp, &contains)
	if !contains.InWishlist {
		t.Fatal("expected product 5 to be liked")
	}

	expectStatus(t, serve(t, h, http.MethodGet, "/wishlist/items/abc", ""), http.StatusBadRequest)

	expectStatus(t, serve(t, h, http.MethodDelete, "/wishlist/items/5", ""), http.StatusOK)
	if store.IsInWishlist(5) {
		t.Fatal("expected product 5 to be removed")
	}

	resp = serve(t, h, http.MethodDelete, "/wishlist/items/5", "")
	var again wishlistChangeResponse
	decodeData(t, resp, &again)
	if again.Changed {
		t.Fatal("expected second remove to be a no-op")
	}
}

func TestWishlistAddProductToggles(t *testing.T) {
	category := int64(4)
	store := wishlist.NewStore(wishlist.StoreParams{})
	catalog := &stubCatalog{products: map[int64]storefrontapi.Product{
		8: {ProductID: 8, ProductName: "Bag", Price: decimal.NewFromInt(500000), CategoryID: &category},
	}}
	h := wishlistRouter(store, catalog)

	expectStatus(t, serve(t, h, http.MethodPost, "/wishlist/products", `{"product_id":8,"toggle":true}`), http.StatusOK)
	if !store.IsInWishlist(8) {
		t.Fatal("expected toggle to like product 8")
	}
	items := store.Items()
	if items[0].CategoryID == nil || *items[0].CategoryID != 4 {
		t.Fatalf("expected category to be copied, got %+v", items[0])
	}

	expectStatus(t, serve(t, h, http.MethodPost, "/wishlist/products", `{"product_id":8,"toggle":true}`), http.StatusOK)
	if store.IsInWishlist(8) {
		t.Fatal("expected second toggle to unlike product 8")
	}

	expectStatus(t, serve(t, h, http.MethodPost, "/wishlist/products", `{"product_id":404}`), http.StatusNotFound)
}

func TestWishlistClear(t *testing.T) {
	store := wishlist.NewStore(wishlist.StoreParams{})
	store.AddItem(wishlist.Item{ProductID: 1, ProductName: "A"})
	store.AddItem(wishlist.Item{ProductID: 2, ProductName: "B"})

	resp := serve(t, wishlistRouter(store, nil), http.MethodDelete, "/wishlist", "")
	expectStatus(t, resp, http.StatusOK)
	var out struct {
		Removed int `json:"removed"`
	}
	decodeData(t, resp, &out)
	if out.Removed != 2 || store.TotalItems() != 0 {
		t.Fatalf("expected 2 removed and empty wishlist, got removed=%d remaining=%d", out.Removed, store.TotalItems())
	}
}
