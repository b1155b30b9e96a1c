package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// HydrationReporter is satisfied by the cart and wishlist stores.
type HydrationReporter interface {
	Hydrated() bool
}

// Healthz reports liveness plus whether each persisted store has loaded its
// snapshot.
func Healthz(cfg *config.Config, stores map[string]HydrationReporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logg.WithFields(r.Context(), map[string]any{
			"env":  cfg.App.Env,
			"path": r.URL.Path,
		})
		logg.Debug(ctx, "health.check")

		hydrated := make(map[string]bool, len(stores))
		for name, store := range stores {
			hydrated[name] = store != nil && store.Hydrated()
		}

		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]any{"status": "ok", "hydrated": hydrated})
	}
}
