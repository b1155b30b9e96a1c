package controllers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/money"
	"github.com/angelmondragon/storefront/pkg/storefrontapi"
)

// productCatalog is the part of the storefront API that resolves products
// and their variants.
type productCatalog interface {
	GetProduct(ctx context.Context, id int64) (*storefrontapi.Product, error)
	ColorsByProduct(ctx context.Context, productID int64) *storefrontapi.Envelope[[]storefrontapi.Color]
	SizesByProduct(ctx context.Context, productID int64) *storefrontapi.Envelope[[]storefrontapi.Size]
}

type cartResponse struct {
	Items               []cart.Item     `json:"items"`
	TotalPrice          decimal.Decimal `json:"total_price"`
	TotalPriceFormatted string          `json:"total_price_formatted"`
	TotalItems          int             `json:"total_items"`
}

type cartChangeResponse struct {
	Change cart.Change  `json:"change"`
	Cart   cartResponse `json:"cart"`
}

// cartView derives every field from one copy of the lines.
func cartView(store *cart.Store) cartResponse {
	items := store.Items()
	total, quantity := cart.Totals(items)
	return cartResponse{
		Items:               items,
		TotalPrice:          total,
		TotalPriceFormatted: money.FormatVND(total),
		TotalItems:          quantity,
	}
}

type addCartItemRequest struct {
	ProductID     int64           `json:"product_id" validate:"gt=0"`
	ProductName   string          `json:"product_name" validate:"required"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"image_url"`
	ColorID       *int64          `json:"color_id"`
	ColorName     string          `json:"color_name"`
	SizeID        *int64          `json:"size_id"`
	SizeName      string          `json:"size_name"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	Quantity      int             `json:"quantity" validate:"gte=0"`
}

type addCartProductRequest struct {
	ProductID int64  `json:"product_id" validate:"gt=0"`
	ColorID   *int64 `json:"color_id" validate:"omitempty,gt=0"`
	SizeID    *int64 `json:"size_id" validate:"omitempty,gt=0"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartFetch returns the cart with its totals.
func CartFetch(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}
		responses.WriteSuccess(w, cartView(store))
	}
}

// CartAddItem adds a fully described line to the cart.
func CartAddItem(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		var req addCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if req.Price.IsNegative() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative"))
			return
		}

		change := store.AddItem(cart.ItemInput{
			ProductID:     req.ProductID,
			ProductName:   validators.SanitizeString(req.ProductName, validators.MaxNameLength),
			Price:         req.Price,
			ImageURL:      req.ImageURL,
			ColorID:       req.ColorID,
			ColorName:     req.ColorName,
			SizeID:        req.SizeID,
			SizeName:      req.SizeName,
			StockQuantity: req.StockQuantity,
		}, req.Quantity)

		responses.WriteSuccess(w, cartChangeResponse{Change: change, Cart: cartView(store)})
	}
}

// CartAddProduct resolves a product and its selected variants through the
// storefront API, then adds it to the cart.
func CartAddProduct(store *cart.Store, catalog productCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil || catalog == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		var req addCartProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := catalog.GetProduct(ctx, req.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var color *storefrontapi.Color
		if req.ColorID != nil {
			for _, c := range catalog.ColorsByProduct(ctx, product.ProductID).Data {
				if c.ColorID == *req.ColorID {
					color = &c
					break
				}
			}
			if color == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "color is not available for this product"))
				return
			}
		}

		var size *storefrontapi.Size
		if req.SizeID != nil {
			for _, s := range catalog.SizesByProduct(ctx, product.ProductID).Data {
				if s.SizeID == *req.SizeID {
					size = &s
					break
				}
			}
			if size == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "size is not available for this product"))
				return
			}
		}

		change := store.AddItem(storefrontapi.CartInputFromProduct(*product, color, size), req.Quantity)
		responses.WriteSuccess(w, cartChangeResponse{Change: change, Cart: cartView(store)})
	}
}

// CartUpdateItem sets a line's quantity; zero or less removes it.
func CartUpdateItem(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		id, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		change := store.UpdateQuantity(id, *req.Quantity)
		responses.WriteSuccess(w, cartChangeResponse{Change: change, Cart: cartView(store)})
	}
}

// CartRemoveItem drops a line. Unknown ids succeed with removed=false.
func CartRemoveItem(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		id, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		removed := store.RemoveItem(id)
		responses.WriteSuccess(w, map[string]any{"removed": removed, "cart": cartView(store)})
	}
}

func CartClear(store *cart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}
		removed := store.ClearCart()
		responses.WriteSuccess(w, map[string]any{"removed": removed, "cart": cartView(store)})
	}
}

func itemIDParam(r *http.Request) (string, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "itemId"))
	if err != nil || strings.TrimSpace(raw) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid item id")
	}
	return raw, nil
}
