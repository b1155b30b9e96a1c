package storefrontapi

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DefaultPageSize matches the backend's default page size.
const DefaultPageSize = 10

// Envelope is the backend's common response wrapper.
type Envelope[T any] struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message,omitempty"`
	Data       T      `json:"data"`
}

// Page is a Spring style page of results.
type Page[T any] struct {
	Content       []T `json:"content"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Size          int `json:"size"`
	Number        int `json:"number"`
}

// HasMore reports whether a later page exists.
func (p Page[T]) HasMore() bool {
	return p.Number < p.TotalPages-1
}

type Product struct {
	ProductID     int64           `json:"productId"`
	ProductName   string          `json:"productName"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	CategoryID    *int64          `json:"categoryId,omitempty"`
	CategoryName  string          `json:"categoryName,omitempty"`
	CreatedAt     string          `json:"createdAt,omitempty"`
	UpdatedAt     string          `json:"updatedAt,omitempty"`
}

type Category struct {
	CategoryID   int64  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

type Color struct {
	ColorID     int64  `json:"colorId"`
	ColorName   string `json:"colorName"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName,omitempty"`
}

type Size struct {
	SizeID      int64  `json:"sizeId"`
	SizeName    string `json:"sizeName"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName,omitempty"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type OrderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type OrderRequest struct {
	UserID          int64              `json:"userId"`
	ShippingAddress string             `json:"shippingAddress"`
	OrderItems      []OrderItemRequest `json:"orderItems"`
}

type OrderItem struct {
	OrderItemID int64           `json:"orderItemId"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type Order struct {
	OrderID         int64           `json:"orderId"`
	UserID          int64           `json:"userId"`
	UserName        string          `json:"userName"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	OrderStatus     OrderStatus     `json:"orderStatus"`
	ShippingAddress string          `json:"shippingAddress"`
	OrderItems      []OrderItem     `json:"orderItems"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Gender      Gender `json:"gender"`
	Address     string `json:"address,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// User is the signed-in user as kept under the userData key. The login
// response fills ID, Name and Email; the rest comes from profile edits.
type User struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	FirstName   string      `json:"firstName,omitempty"`
	LastName    string      `json:"lastName,omitempty"`
	Gender      Gender      `json:"gender,omitempty"`
	PhoneNumber string      `json:"phoneNumber,omitempty"`
}

// NumericID parses the user id, which the backend sends as string or number.
func (u User) NumericID() (int64, bool) {
	id, err := u.ID.Int64()
	return id, err == nil
}

type AuthData struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ProfileUpdate is the editable subset of the user profile.
type ProfileUpdate struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Gender      Gender `json:"gender,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}
