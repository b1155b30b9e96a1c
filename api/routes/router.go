package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/filters"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storefrontapi"
)

// Params groups what the router wires into handlers. Counters and Replays are
// optional; without them login throttling and checkout replay are off.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Cart     *cart.Store
	Wishlist *wishlist.Store
	Filters  *filters.Store
	API      *storefrontapi.Client
	Counters middleware.CounterStore
	Replays  middleware.ReplayStore
	Gatherer prometheus.Gatherer
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger
	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Get("/healthz", controllers.Healthz(cfg, map[string]controllers.HydrationReporter{
		"cart":     p.Cart,
		"wishlist": p.Wishlist,
	}, logg))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	loginThrottle := middleware.LoginThrottle{
		Window:     cfg.LoginRateLimit.Window,
		IPLimit:    cfg.LoginRateLimit.IPLimit,
		EmailLimit: cfg.LoginRateLimit.EmailLimit,
	}
	replay := middleware.Idempotency(p.Replays, cfg.Idempotency.CheckoutTTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.Cart, logg))
			r.Delete("/", controllers.CartClear(p.Cart, logg))
			r.Post("/items", controllers.CartAddItem(p.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(p.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(p.Cart, logg))
			r.Post("/products", controllers.CartAddProduct(p.Cart, p.API, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistFetch(p.Wishlist, logg))
			r.Delete("/", controllers.WishlistClear(p.Wishlist, logg))
			r.Post("/items", controllers.WishlistAddItem(p.Wishlist, logg))
			r.Get("/items/{productId}", controllers.WishlistContains(p.Wishlist, logg))
			r.Delete("/items/{productId}", controllers.WishlistRemoveItem(p.Wishlist, logg))
			r.Post("/products", controllers.WishlistAddProduct(p.Wishlist, p.API, logg))
		})

		r.Route("/filters", func(r chi.Router) {
			r.Get("/", controllers.FiltersFetch(p.Filters, logg))
			r.Put("/", controllers.FiltersSet(p.Filters, logg))
			r.Delete("/", controllers.FiltersReset(p.Filters, logg))
			r.Post("/apply", controllers.FiltersApply(p.Filters, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogProducts(p.API, logg))
			r.Get("/products/{productId}", controllers.CatalogProduct(p.API, logg))
			r.Get("/categories", controllers.CatalogCategories(p.API, logg))
		})

		r.With(replay).Post("/checkout", controllers.Checkout(p.Cart, p.API, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(p.API, logg))
			r.Get("/{orderId}", controllers.OrdersDetail(p.API, logg))
			r.With(replay).Post("/{orderId}/cancel", controllers.OrdersCancel(p.API, logg))
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", controllers.SessionCurrent(p.API, logg))
			r.Delete("/", controllers.SessionLogout(p.API, logg))
			r.With(middleware.LoginRateLimit(loginThrottle, p.Counters, logg)).Post("/login", controllers.SessionLogin(p.API, logg))
			r.Patch("/profile", controllers.SessionUpdateProfile(p.API, logg))
		})
	})

	return r
}
