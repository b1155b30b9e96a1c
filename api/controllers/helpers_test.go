package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/storefrontapi"
	"github.com/angelmondragon/storefront/pkg/types"
)

type stubCatalog struct {
	products   map[int64]storefrontapi.Product
	colors     []storefrontapi.Color
	sizes      []storefrontapi.Size
	categories []storefrontapi.Category
	listed     *storefrontapi.ProductQuery
	searched   string
	byCategory int64
}

func (s *stubCatalog) GetProduct(ctx context.Context, id int64) (*storefrontapi.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	return &p, nil
}

func (s *stubCatalog) ColorsByProduct(ctx context.Context, productID int64) *storefrontapi.Envelope[[]storefrontapi.Color] {
	return &storefrontapi.Envelope[[]storefrontapi.Color]{StatusCode: http.StatusOK, Data: s.colors}
}

func (s *stubCatalog) SizesByProduct(ctx context.Context, productID int64) *storefrontapi.Envelope[[]storefrontapi.Size] {
	return &storefrontapi.Envelope[[]storefrontapi.Size]{StatusCode: http.StatusOK, Data: s.sizes}
}

func (s *stubCatalog) page() *storefrontapi.Envelope[storefrontapi.Page[storefrontapi.Product]] {
	content := make([]storefrontapi.Product, 0, len(s.products))
	for _, p := range s.products {
		content = append(content, p)
	}
	return &storefrontapi.Envelope[storefrontapi.Page[storefrontapi.Product]]{
		StatusCode: http.StatusOK,
		Data:       storefrontapi.Page[storefrontapi.Product]{Content: content, TotalElements: len(content), TotalPages: 2, Size: 10},
	}
}

func (s *stubCatalog) ListProducts(ctx context.Context, q storefrontapi.ProductQuery) (*storefrontapi.Envelope[storefrontapi.Page[storefrontapi.Product]], error) {
	s.listed = &q
	return s.page(), nil
}

func (s *stubCatalog) ProductsByCategory(ctx context.Context, categoryID int64, page, size int) (*storefrontapi.Envelope[storefrontapi.Page[storefrontapi.Product]], error) {
	s.byCategory = categoryID
	return s.page(), nil
}

func (s *stubCatalog) SearchProducts(ctx context.Context, keyword string, page, size int) (*storefrontapi.Envelope[storefrontapi.Page[storefrontapi.Product]], error) {
	s.searched = keyword
	return s.page(), nil
}

func (s *stubCatalog) AllCategories(ctx context.Context) (*storefrontapi.Envelope[[]storefrontapi.Category], error) {
	return &storefrontapi.Envelope[[]storefrontapi.Category]{StatusCode: http.StatusOK, Data: s.categories}, nil
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v (body=%s)", err, resp.Body.String())
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env.Error
}

func expectStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("expected status %d, got %d (body=%s)", want, resp.Code, resp.Body.String())
	}
}
