package wishlist

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Item is a liked product. ProductID is unique within a wishlist.
type Item struct {
	ProductID     int64           `json:"productId" validate:"gt=0"`
	ProductName   string          `json:"productName" validate:"required"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	StockQuantity int             `json:"stockQuantity" validate:"gte=0"`
	CategoryID    *int64          `json:"categoryId,omitempty"`
	CategoryName  string          `json:"categoryName,omitempty"`
}

// MarshalJSON writes price as a JSON number. Reading accepts numbers and
// strings.
func (i Item) MarshalJSON() ([]byte, error) {
	type plain Item
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain: plain(i), Price: json.Number(i.Price.String())})
}

type items []Item

func (l items) find(productID int64) int {
	for i := range l {
		if l[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (l items) clone() items {
	out := make(items, len(l))
	copy(out, l)
	return out
}

func (l items) add(item Item) (items, bool) {
	if l.find(item.ProductID) >= 0 {
		return l, false
	}
	next := make(items, len(l), len(l)+1)
	copy(next, l)
	return append(next, item), true
}

func (l items) remove(productID int64) (items, bool) {
	idx := l.find(productID)
	if idx < 0 {
		return l, false
	}
	next := make(items, 0, len(l)-1)
	next = append(next, l[:idx]...)
	return append(next, l[idx+1:]...), true
}

// dedupe keeps the first entry for each product.
func dedupe(loaded []Item) (items, int) {
	out := make(items, 0, len(loaded))
	dropped := 0
	for _, item := range loaded {
		if item.Price.IsNegative() || out.find(item.ProductID) >= 0 {
			dropped++
			continue
		}
		out = append(out, item)
	}
	return out, dropped
}

// toggle removes the product when present and adds item otherwise. It
// reports membership afterwards.
func (l items) toggle(item Item) (items, bool) {
	if next, removed := l.remove(item.ProductID); removed {
		return next, false
	}
	next, _ := l.add(item)
	return next, true
}
