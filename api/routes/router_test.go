package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/filters"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/persist"
	"github.com/angelmondragon/storefront/pkg/storefrontapi"
)

type memoryCounters struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *memoryCounters) IncrWithTTL(ctx context.Context, scope string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[scope]++
	return m.counts[scope], nil
}

type memoryReplays struct {
	mu      sync.Mutex
	records map[string]string
}

func (m *memoryReplays) LoadReplay(ctx context.Context, scope, id string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.records[scope+"|"+id]
	return v, ok, nil
}

func (m *memoryReplays) SaveReplay(ctx context.Context, scope, id, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[scope+"|"+id]; !ok {
		m.records[scope+"|"+id] = value
	}
	return nil
}

type harness struct {
	handler http.Handler
	cart    *cart.Store
	orders  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{}

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/auth/login":
			_, _ = io.WriteString(w, `{"statusCode":200,"data":{"token":"opaque","user":{"id":42,"name":"Lan","email":"lan@example.com"}}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/products/1":
			_, _ = io.WriteString(w, `{"statusCode":200,"data":{"productId":1,"productName":"Tee","price":"120000","stockQuantity":4}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/orders":
			h.orders++
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"statusCode":201,"message":"Order created","data":{"orderId":500,"orderStatus":"PENDING"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Not found"}`)
		}
	}))
	t.Cleanup(backend.Close)

	cfg := &config.Config{
		App:            config.AppConfig{Env: "test"},
		API:            config.APIConfig{BaseURL: backend.URL + "/api", Timeout: time.Second},
		LoginRateLimit: config.LoginRateLimitConfig{Window: time.Minute, EmailLimit: 2},
		Idempotency:    config.IdempotencyConfig{CheckoutTTL: time.Hour},
	}

	registry := prometheus.NewRegistry()
	metrics.NewPersistenceMetrics(registry).ObserveHydration(persist.KeyCart, "loaded")

	h.cart = cart.NewStore(cart.StoreParams{})
	api := storefrontapi.NewClient(cfg.API, storefrontapi.WithCredentials(storefrontapi.NewCredentialStore(persist.NewMemory())))
	h.handler = NewRouter(Params{
		Config:   cfg,
		Cart:     h.cart,
		Wishlist: wishlist.NewStore(wishlist.StoreParams{}),
		Filters:  filters.NewStore(),
		API:      api,
		Counters: &memoryCounters{counts: map[string]int64{}},
		Replays:  &memoryReplays{records: map[string]string{}},
		Gatherer: registry,
	})
	return h
}

func (h *harness) do(t *testing.T, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectBody(t *testing.T, rec *httptest.ResponseRecorder, sub string) {
	t.Helper()
	if !strings.Contains(rec.Body.String(), sub) {
		t.Fatalf("expected body to contain %q, got %s", sub, rec.Body.String())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, rec, http.StatusOK)
	expectBody(t, rec, `"cart":true`)
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a generated request id")
	}

	rec = h.do(t, http.MethodGet, "/metrics", "", nil)
	expectStatus(t, rec, http.StatusOK)
	expectBody(t, rec, "snapshot_hydrations")
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/v1/cart", "", map[string]string{"X-Request-Id": "req-123"})
	expectStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("expected req-123, got %q", got)
	}
}

func TestUnknownRoute(t *testing.T) {
	expectStatus(t, newHarness(t).do(t, http.MethodGet, "/api/v1/nope", "", nil), http.StatusNotFound)
}

func TestCORSPreflight(t *testing.T) {
	rec := newHarness(t).do(t, http.MethodOptions, "/api/v1/cart", "", map[string]string{
		"Origin":                        "http://localhost:8081",
		"Access-Control-Request-Method": http.MethodPost,
	})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8081" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestShoppingFlow(t *testing.T) {
	h := newHarness(t)

	expectStatus(t, h.do(t, http.MethodPost, "/api/v1/session/login", `{"email":"lan@example.com","password":"pw"}`, nil), http.StatusOK)

	expectStatus(t, h.do(t, http.MethodPost, "/api/v1/cart/products", `{"product_id":1,"quantity":2}`, nil), http.StatusOK)
	if got := h.cart.TotalItems(); got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}

	rec := h.do(t, http.MethodPut, "/api/v1/filters", `{"priceRange":{"min":"0","max":"500000"}}`, nil)
	expectStatus(t, rec, http.StatusOK)
	expectBody(t, rec, `"active":true`)

	checkout := `{"shipping_address":{"first_name":"Lan","last_name":"Nguyen","street_name":"12 Le Loi","city":"Hue","zip_code":"530000","country":"Vietnam","phone_number":"0901"}}`
	headers := map[string]string{"Idempotency-Key": "order-1"}
	rec = h.do(t, http.MethodPost, "/api/v1/checkout", checkout, headers)
	expectStatus(t, rec, http.StatusCreated)
	expectBody(t, rec, `"orderId":500`)
	if got := h.cart.TotalItems(); got != 0 {
		t.Fatalf("expected empty cart after checkout, got %d", got)
	}

	rec = h.do(t, http.MethodPost, "/api/v1/checkout", checkout, headers)
	expectStatus(t, rec, http.StatusCreated)
	if rec.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatal("expected replayed checkout")
	}
	if h.orders != 1 {
		t.Fatalf("expected 1 backend order, got %d", h.orders)
	}

	expectStatus(t, h.do(t, http.MethodPost, "/api/v1/checkout", checkout, nil), http.StatusBadRequest)
}

func TestLoginIsThrottled(t *testing.T) {
	h := newHarness(t)
	body := `{"email":"lan@example.com","password":"pw"}`
	for i := 0; i < 2; i++ {
		expectStatus(t, h.do(t, http.MethodPost, "/api/v1/session/login", body, nil), http.StatusOK)
	}
	expectStatus(t, h.do(t, http.MethodPost, "/api/v1/session/login", body, nil), http.StatusTooManyRequests)
}
