package storefrontapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// ProductQuery pages and sorts the product listing.
type ProductQuery struct {
	Page      int
	Size      int
	SortBy    string
	Direction string
}

func (q ProductQuery) withDefaults() ProductQuery {
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	if strings.TrimSpace(q.SortBy) == "" {
		q.SortBy = "productId"
	}
	if strings.TrimSpace(q.Direction) == "" {
		q.Direction = "ASC"
	}
	return q
}

// ListProducts returns one page of the product catalog.
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*Envelope[Page[Product]], error) {
	q = q.withDefaults()
	query := pageQuery(q.Page, q.Size)
	query.Set("sortBy", q.SortBy)
	query.Set("direction", q.Direction)

	var out Envelope[Page[Product]]
	if _, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/v1/products",
		query:    query,
		fallback: "failed to load products",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProduct returns the product with id.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var out Envelope[*Product]
	if _, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/v1/products/%d", id),
		fallback: "failed to load product",
	}, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return out.Data, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, categoryID int64, page, size int) (*Envelope[Page[Product]], error) {
	var out Envelope[Page[Product]]
	if _, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/v1/products/category/%d", categoryID),
		query:    pageQuery(page, size),
		fallback: "failed to load products for category",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchProducts(ctx context.Context, keyword string, page, size int) (*Envelope[Page[Product]], error) {
	query := pageQuery(page, size)
	query.Set("keyword", keyword)

	var out Envelope[Page[Product]]
	if _, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/v1/products/search",
		query:    query,
		fallback: "failed to search products",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCategories returns a page of categories. The endpoint answers with a
// bare page, which is wrapped in an envelope carrying the HTTP status.
func (c *Client) ListCategories(ctx context.Context, page, size int) (*Envelope[Page[Category]], error) {
	query := pageQuery(page, size)
	var raw Page[Category]
	status, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/v1/categories",
		query:    query,
		fallback: "failed to load categories",
	}, &raw)
	if err != nil {
		return nil, err
	}
	if raw.Content == nil {
		raw.Content = []Category{}
	}
	if raw.Size == 0 {
		raw.Size = max(size, 0)
		if raw.Size == 0 {
			raw.Size = DefaultPageSize
		}
	}
	if raw.Number == 0 {
		raw.Number = max(page, 0)
	}
	return &Envelope[Page[Category]]{StatusCode: status, Data: raw}, nil
}

// AllCategories returns every category without paging.
func (c *Client) AllCategories(ctx context.Context) (*Envelope[[]Category], error) {
	var raw []Category
	status, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/v1/categories/no-paging",
		fallback: "failed to load categories",
	}, &raw)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		raw = []Category{}
	}
	return &Envelope[[]Category]{StatusCode: status, Data: raw}, nil
}

func (c *Client) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var out Category
	if _, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/v1/categories/%d", id),
		fallback: "failed to load category",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ColorsByProduct never fails: any error yields an empty list with status 200.
func (c *Client) ColorsByProduct(ctx context.Context, productID int64) *Envelope[[]Color] {
	var out Envelope[[]Color]
	_, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/v1/colors/product/%d", productID),
		fallback: "failed to load colors",
	}, &out)
	if err != nil {
		return emptyVariants[Color](c, ctx, "colors", productID, err)
	}
	if out.Data == nil {
		out.Data = []Color{}
	}
	return &out
}

// SizesByProduct never fails: any error yields an empty list with status 200.
func (c *Client) SizesByProduct(ctx context.Context, productID int64) *Envelope[[]Size] {
	var out Envelope[[]Size]
	_, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/v1/sizes/product/%d", productID),
		fallback: "failed to load sizes",
	}, &out)
	if err != nil {
		return emptyVariants[Size](c, ctx, "sizes", productID, err)
	}
	if out.Data == nil {
		out.Data = []Size{}
	}
	return &out
}

func emptyVariants[T any](c *Client, ctx context.Context, kind string, productID int64, err error) *Envelope[[]T] {
	ctx = c.logg.WithFields(ctx, map[string]any{"product_id": productID, "variant": kind})

	message := fmt.Sprintf("No %s available", kind)
	typed := pkgerrors.As(err)
	switch {
	case typed == nil:
		c.logg.Error(ctx, "variant lookup failed", err)
	case typed.Code() == pkgerrors.CodeNotFound:
		message = fmt.Sprintf("No %s found for this product", kind)
		c.logg.Debug(ctx, "product has no variants")
	case typed.Code() == pkgerrors.CodeDependency && typed.Details() == nil:
		message = "Network error"
		c.logg.Warn(ctx, "variant lookup unreachable")
	default:
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "variant lookup failed")
	}
	return &Envelope[[]T]{StatusCode: http.StatusOK, Message: message, Data: []T{}}
}
