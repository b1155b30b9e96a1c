package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storefrontapi"
)

type userSource interface {
	CurrentUser(ctx context.Context) (*storefrontapi.User, error)
}

type orderPlacer interface {
	userSource
	CreateOrder(ctx context.Context, req storefrontapi.OrderRequest) (*storefrontapi.Envelope[*storefrontapi.Order], error)
}

type checkoutRequest struct {
	UserID          *int64                        `json:"user_id" validate:"omitempty,gt=0"`
	ShippingAddress storefrontapi.ShippingDetails `json:"shipping_address"`
}

type checkoutResponse struct {
	Order   *storefrontapi.Order `json:"order"`
	Message string               `json:"message,omitempty"`
	Cleared int                  `json:"cleared_items"`
}

// Checkout places the cart as a remote order and, once the backend has
// accepted it, removes the ordered quantities from the cart. Lines added
// while the order was in flight are kept.
func Checkout(store *cart.Store, orders orderPlacer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil || orders == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items := store.Items()
		if len(items) == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
			return
		}

		userID, err := resolveUserID(ctx, req.UserID, orders)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithFields(ctx, map[string]any{"user_id": userID, "line_count": len(items)})

		env, err := orders.CreateOrder(ctx, storefrontapi.OrderRequestFromCart(userID, req.ShippingAddress.Format(), items))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if env.Data == nil {
			msg := env.Message
			if msg == "" {
				msg = "order was not created"
			}
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, msg))
			return
		}

		cleared := store.RemoveLines(items)
		logg.Info(logg.WithField(ctx, "order_id", env.Data.OrderID), "checkout.order_created")
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Order:   env.Data,
			Message: env.Message,
			Cleared: cleared,
		})
	}
}

// resolveUserID prefers an explicit id and falls back to the signed-in user.
func resolveUserID(ctx context.Context, explicit *int64, users userSource) (int64, error) {
	if explicit != nil {
		return *explicit, nil
	}
	user, err := users.CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}
	id, ok := user.NumericID()
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "stored user has no usable id")
	}
	return id, nil
}
