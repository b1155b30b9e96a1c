package storefrontapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func (c *Client) OrdersByUser(ctx context.Context, userID int64, page, size int) (*Envelope[Page[Order]], error) {
	var out Envelope[Page[Order]]
	if _, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/v1/orders/user/%d", userID),
		query:    pageQuery(page, size),
		fallback: "failed to load orders",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, page, size int) (*Envelope[Page[Order]], error) {
	var out Envelope[Page[Order]]
	if _, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/v1/orders",
		query:    pageQuery(page, size),
		fallback: "failed to load orders",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*Envelope[*Order], error) {
	var out Envelope[*Order]
	if _, err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/v1/orders/%d", id),
		fallback: "failed to load order",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder places an order. A response without data means the backend
// declined it; callers check Data before treating the order as placed.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Envelope[*Order], error) {
	if len(req.OrderItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	var out Envelope[*Order]
	if _, err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/v1/orders",
		body:     req,
		fallback: "failed to create order",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) (*Envelope[*Order], error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}
	var out Envelope[*Order]
	if _, err := c.do(ctx, call{
		method:   http.MethodPatch,
		path:     fmt.Sprintf("/v1/orders/%d/status", id),
		body:     map[string]OrderStatus{"orderStatus": status},
		fallback: "failed to update order status",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelOrder(ctx context.Context, id int64) (*Envelope[json.RawMessage], error) {
	var out Envelope[json.RawMessage]
	if _, err := c.do(ctx, call{
		method:   http.MethodDelete,
		path:     fmt.Sprintf("/v1/orders/%d", id),
		fallback: "failed to cancel order",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
