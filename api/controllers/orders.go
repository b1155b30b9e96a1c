package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storefrontapi"
)

type orderReader interface {
	OrdersByUser(ctx context.Context, userID int64, page, size int) (*storefrontapi.Envelope[storefrontapi.Page[storefrontapi.Order]], error)
	GetOrder(ctx context.Context, id int64) (*storefrontapi.Envelope[*storefrontapi.Order], error)
	CancelOrder(ctx context.Context, id int64) (*storefrontapi.Envelope[json.RawMessage], error)
	userSource
}

// OrdersList pages through the signed-in user's order history.
func OrdersList(orders orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if orders == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders unavailable"))
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

		userID, err := resolveUserID(ctx, nil, orders)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		env, err := orders.OrdersByUser(ctx, userID, page, size)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"orders":   env.Data.Content,
			"page":     env.Data.Number,
			"size":     env.Data.Size,
			"total":    env.Data.TotalElements,
			"has_more": env.Data.HasMore(),
		})
	}
}

func OrdersDetail(orders orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if orders == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders unavailable"))
			return
		}
		id, err := validators.PathID(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		env, err := orders.GetOrder(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if env.Data == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, env.Data)
	}
}

func OrdersCancel(orders orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if orders == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders unavailable"))
			return
		}
		id, err := validators.PathID(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		env, err := orders.CancelOrder(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Info(logg.WithField(ctx, "order_id", id), "orders.cancelled")
		responses.WriteSuccess(w, map[string]any{"order_id": id, "message": env.Message})
	}
}
