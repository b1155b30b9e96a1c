package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/wishlist"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storefrontapi"
)

type wishlistResponse struct {
	Items      []wishlist.Item `json:"items"`
	TotalItems int             `json:"total_items"`
}

type wishlistChangeResponse struct {
	ProductID  int64            `json:"product_id"`
	Changed    bool             `json:"changed"`
	InWishlist bool             `json:"in_wishlist"`
	Wishlist   wishlistResponse `json:"wishlist"`
}

type addWishlistItemRequest struct {
	ProductID     int64           `json:"product_id" validate:"gt=0"`
	ProductName   string          `json:"product_name" validate:"required"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"image_url"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	CategoryID    *int64          `json:"category_id"`
	CategoryName  string          `json:"category_name"`
}

type addWishlistProductRequest struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	// Toggle removes the product when it is already liked.
	Toggle bool `json:"toggle"`
}

func wishlistView(store *wishlist.Store) wishlistResponse {
	return wishlistResponse{Items: store.Items(), TotalItems: store.TotalItems()}
}

func WishlistFetch(store *wishlist.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist store unavailable"))
			return
		}
		responses.WriteSuccess(w, wishlistView(store))
	}
}

// WishlistAddItem likes a product described in full by the caller. Adding a
// product twice is not an error.
func WishlistAddItem(store *wishlist.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist store unavailable"))
			return
		}

		var req addWishlistItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		added := store.AddItem(wishlist.Item{
			ProductID:     req.ProductID,
			ProductName:   validators.SanitizeString(req.ProductName, validators.MaxNameLength),
			Price:         req.Price,
			ImageURL:      req.ImageURL,
			StockQuantity: req.StockQuantity,
			CategoryID:    req.CategoryID,
			CategoryName:  req.CategoryName,
		})
		responses.WriteSuccess(w, wishlistChangeResponse{
			ProductID:  req.ProductID,
			Changed:    added,
			InWishlist: true,
			Wishlist:   wishlistView(store),
		})
	}
}

// WishlistAddProduct resolves the product remotely, then adds or toggles it.
func WishlistAddProduct(store *wishlist.Store, catalog productCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil || catalog == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist store unavailable"))
			return
		}

		var req addWishlistProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if req.Toggle && store.IsInWishlist(req.ProductID) {
			removed := store.RemoveItem(req.ProductID)
			responses.WriteSuccess(w, wishlistChangeResponse{
				ProductID: req.ProductID,
				Changed:   removed,
				Wishlist:  wishlistView(store),
			})
			return
		}

		product, err := catalog.GetProduct(ctx, req.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		added := store.AddItem(storefrontapi.WishlistItemFromProduct(*product))
		responses.WriteSuccess(w, wishlistChangeResponse{
			ProductID:  product.ProductID,
			Changed:    added,
			InWishlist: true,
			Wishlist:   wishlistView(store),
		})
	}
}

func WishlistContains(store *wishlist.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist store unavailable"))
			return
		}
		productID, err := validators.PathID(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"product_id":  productID,
			"in_wishlist": store.IsInWishlist(productID),
		})
	}
}

func WishlistRemoveItem(store *wishlist.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist store unavailable"))
			return
		}
		productID, err := validators.PathID(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		removed := store.RemoveItem(productID)
		responses.WriteSuccess(w, wishlistChangeResponse{
			ProductID: productID,
			Changed:   removed,
			Wishlist:  wishlistView(store),
		})
	}
}

func WishlistClear(store *wishlist.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist store unavailable"))
			return
		}
		removed := store.ClearWishlist()
		responses.WriteSuccess(w, map[string]any{"removed": removed, "wishlist": wishlistView(store)})
	}
}
