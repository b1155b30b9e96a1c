// Package storefrontapi is the client for the remote storefront REST API and
// the translations from its shapes into cart and wishlist inputs.
package storefrontapi

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/wishlist"
)

// CartInputFromProduct builds the cart input for a product and optional
// color and size selection.
func CartInputFromProduct(p Product, color *Color, size *Size) cart.ItemInput {
	in := cart.ItemInput{
		ProductID:     p.ProductID,
		ProductName:   p.ProductName,
		Price:         p.Price,
		ImageURL:      p.ImageURL,
		StockQuantity: p.StockQuantity,
	}
	if color != nil {
		id := color.ColorID
		in.ColorID = &id
		in.ColorName = color.ColorName
	}
	if size != nil {
		id := size.SizeID
		in.SizeID = &id
		in.SizeName = size.SizeName
	}
	return in
}

func WishlistItemFromProduct(p Product) wishlist.Item {
	item := wishlist.Item{
		ProductID:     p.ProductID,
		ProductName:   p.ProductName,
		Price:         p.Price,
		ImageURL:      p.ImageURL,
		StockQuantity: p.StockQuantity,
		CategoryName:  p.CategoryName,
	}
	if p.CategoryID != nil {
		id := *p.CategoryID
		item.CategoryID = &id
	}
	return item
}

// ShippingDetails is the checkout form.
type ShippingDetails struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	StreetName  string `json:"street_name" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code" validate:"required"`
	Country     string `json:"country" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
}

// Format renders the single-line address the orders endpoint stores, e.g.
// "Lan Nguyen, 12 Le Loi, Hue, State: TT, Zip: 530000, Vietnam, Phone: 0901".
func (d ShippingDetails) Format() string {
	parts := make([]string, 0, 5)
	for _, part := range []string{d.StreetName, d.City} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if d.State != "" {
		parts = append(parts, "State: "+d.State)
	}
	parts = append(parts, "Zip: "+d.ZipCode)
	if d.Country != "" {
		parts = append(parts, d.Country)
	}
	return fmt.Sprintf("%s %s, %s, Phone: %s", d.FirstName, d.LastName, strings.Join(parts, ", "), d.PhoneNumber)
}

// OrderRequestFromCart turns cart lines into an order. Variants of the same
// product stay separate lines.
func OrderRequestFromCart(userID int64, shippingAddress string, items []cart.Item) OrderRequest {
	orderItems := make([]OrderItemRequest, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, OrderItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return OrderRequest{
		UserID:          userID,
		ShippingAddress: shippingAddress,
		OrderItems:      orderItems,
	}
}
