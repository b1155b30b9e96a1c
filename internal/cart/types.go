package cart

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

const noVariant = "none"

// Item is one cart line. JSON keys match the snapshot the mobile client wrote.
type Item struct {
	ID            string          `json:"id"`
	ProductID     int64           `json:"productId" validate:"gt=0"`
	ProductName   string          `json:"productName" validate:"required"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	Quantity      int             `json:"quantity" validate:"gte=1"`
	ColorID       *int64          `json:"colorId,omitempty"`
	ColorName     string          `json:"colorName,omitempty"`
	SizeID        *int64          `json:"sizeId,omitempty"`
	SizeName      string          `json:"sizeName,omitempty"`
	StockQuantity int             `json:"stockQuantity" validate:"gte=0"`
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

// ItemInput is what a caller supplies to AddItem: an Item without id or quantity.
type ItemInput struct {
	ProductID     int64           `json:"productId" validate:"gt=0"`
	ProductName   string          `json:"productName" validate:"required"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	ColorID       *int64          `json:"colorId,omitempty"`
	ColorName     string          `json:"colorName,omitempty"`
	SizeID        *int64          `json:"sizeId,omitempty"`
	SizeName      string          `json:"sizeName,omitempty"`
	StockQuantity int             `json:"stockQuantity" validate:"gte=0"`
}

// ID returns the composite key the input collapses into.
func (in ItemInput) ID() string {
	return ItemID(in.ProductID, in.ColorID, in.SizeID)
}

func (in ItemInput) item(quantity int) Item {
	return Item{
		ID:            in.ID(),
		ProductID:     in.ProductID,
		ProductName:   in.ProductName,
		Price:         in.Price,
		ImageURL:      in.ImageURL,
		Quantity:      quantity,
		ColorID:       in.ColorID,
		ColorName:     in.ColorName,
		SizeID:        in.SizeID,
		SizeName:      in.SizeName,
		StockQuantity: in.StockQuantity,
	}
}

// Subtotal is price times quantity for the line.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Totals sums price and quantity over items. Callers holding a copy from
// Store.Items get totals that agree with that copy.
func Totals(items []Item) (decimal.Decimal, int) {
	price := decimal.Zero
	quantity := 0
	for _, item := range items {
		price = price.Add(item.Subtotal())
		quantity += item.Quantity
	}
	return price, quantity
}

// ItemID builds "<product>-<color>-<size>", using "none" for a missing or
// zero variant id.
func ItemID(productID int64, colorID, sizeID *int64) string {
	return strconv.FormatInt(productID, 10) + "-" + variantKey(colorID) + "-" + variantKey(sizeID)
}

func variantKey(id *int64) string {
	if id == nil || *id == 0 {
		return noVariant
	}
	return strconv.FormatInt(*id, 10)
}

// Change reports what a quantity mutation actually did.
type Change struct {
	ID string `json:"id"`
	// Quantity is the line's quantity after the call, 0 when absent.
	Quantity  int  `json:"quantity"`
	Requested int  `json:"requested"`
	Clamped   bool `json:"clamped"`
	Changed   bool `json:"changed"`
	Removed   bool `json:"removed"`
}
