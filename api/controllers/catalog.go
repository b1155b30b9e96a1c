package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storefrontapi"
)

type catalogBrowser interface {
	productCatalog
	ListProducts(ctx context.Context, q storefrontapi.ProductQuery) (*storefrontapi.Envelope[storefrontapi.Page[storefrontapi.Product]], error)
	ProductsByCategory(ctx context.Context, categoryID int64, page, size int) (*storefrontapi.Envelope[storefrontapi.Page[storefrontapi.Product]], error)
	SearchProducts(ctx context.Context, keyword string, page, size int) (*storefrontapi.Envelope[storefrontapi.Page[storefrontapi.Product]], error)
	AllCategories(ctx context.Context) (*storefrontapi.Envelope[[]storefrontapi.Category], error)
}

type productDetailResponse struct {
	Product *storefrontapi.Product `json:"product"`
	Colors  []storefrontapi.Color  `json:"colors"`
	Sizes   []storefrontapi.Size   `json:"sizes"`
}

// CatalogProducts lists products. q searches by keyword and category_id
// narrows to one category; otherwise the full listing is paged.
func CatalogProducts(catalog catalogBrowser, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if catalog == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 0, 0, 10000)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "size", storefrontapi.DefaultPageSize, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryInt(r, "category_id", 0, 0, 1<<31-1)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		keyword := strings.TrimSpace(r.URL.Query().Get("q"))

		var env *storefrontapi.Envelope[storefrontapi.Page[storefrontapi.Product]]
		switch {
		case keyword != "":
			env, err = catalog.SearchProducts(ctx, keyword, page, size)
		case categoryID > 0:
			env, err = catalog.ProductsByCategory(ctx, int64(categoryID), page, size)
		default:
			env, err = catalog.ListProducts(ctx, storefrontapi.ProductQuery{
				Page:      page,
				Size:      size,
				SortBy:    r.URL.Query().Get("sort_by"),
				Direction: strings.ToUpper(r.URL.Query().Get("direction")),
			})
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"products": env.Data.Content,
			"page":     env.Data.Number,
			"size":     env.Data.Size,
			"total":    env.Data.TotalElements,
			"has_more": env.Data.HasMore(),
		})
	}
}

// CatalogProduct returns a product with its color and size options.
func CatalogProduct(catalog catalogBrowser, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if catalog == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		id, err := validators.PathID(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		product, err := catalog.GetProduct(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		colors := catalog.ColorsByProduct(ctx, id).Data
		sizes := catalog.SizesByProduct(ctx, id).Data
		if colors == nil {
			colors = []storefrontapi.Color{}
		}
		if sizes == nil {
			sizes = []storefrontapi.Size{}
		}
		responses.WriteSuccess(w, productDetailResponse{Product: product, Colors: colors, Sizes: sizes})
	}
}

func CatalogCategories(catalog catalogBrowser, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if catalog == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		env, err := catalog.AllCategories(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		categories := env.Data
		if categories == nil {
			categories = []storefrontapi.Category{}
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}
