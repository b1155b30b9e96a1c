package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/filters"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type filtersResponse struct {
	Filters filters.State `json:"filters"`
	Active  bool          `json:"active"`
}

// setFiltersRequest is a complete filter state; partial patches are rejected.
type setFiltersRequest struct {
	PriceRange        *filters.PriceRange `json:"priceRange" validate:"required"`
	SelectedColor     *int64              `json:"selectedColor"`
	SelectedCategory  *int64              `json:"selectedCategory"`
	SelectedRating    *int                `json:"selectedRating" validate:"omitempty,gte=1,lte=5"`
	SelectedDiscounts []string            `json:"selectedDiscounts"`
}

type applyFiltersRequest struct {
	Candidates []filters.Candidate `json:"candidates" validate:"required"`
}

func filtersView(store *filters.Store) filtersResponse {
	state := store.Filters()
	return filtersResponse{Filters: state, Active: state.Active()}
}

func FiltersFetch(store *filters.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filter store unavailable"))
			return
		}
		responses.WriteSuccess(w, filtersView(store))
	}
}

// FiltersSet replaces the whole filter state.
func FiltersSet(store *filters.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filter store unavailable"))
			return
		}

		var req setFiltersRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		discounts := req.SelectedDiscounts
		if discounts == nil {
			discounts = []string{}
		}

		store.SetFilters(filters.State{
			PriceRange:        *req.PriceRange,
			SelectedColor:     req.SelectedColor,
			SelectedCategory:  req.SelectedCategory,
			SelectedRating:    req.SelectedRating,
			SelectedDiscounts: discounts,
		})
		responses.WriteSuccess(w, filtersView(store))
	}
}

func FiltersReset(store *filters.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filter store unavailable"))
			return
		}
		store.ResetFilters()
		responses.WriteSuccess(w, filtersView(store))
	}
}

// FiltersApply returns the candidates that match the current filters.
func FiltersApply(store *filters.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "filter store unavailable"))
			return
		}

		var req applyFiltersRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		state := store.Filters()
		responses.WriteSuccess(w, map[string]any{
			"active":     state.Active(),
			"candidates": state.Apply(req.Candidates),
		})
	}
}
