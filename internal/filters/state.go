package filters

import (
	"slices"

	"github.com/shopspring/decimal"
)

// DefaultMaxPrice is the upper price bound that means "unbounded".
var DefaultMaxPrice = decimal.NewFromInt(10_000_000)

// DiscountLabels are the discount chips the filter sheet offers.
var DiscountLabels = []string{"50% off", "40% off", "30% off", "25% off"}

type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// State is the complete browse criteria. Nil selectors mean "any".
type State struct {
	PriceRange        PriceRange `json:"priceRange"`
	SelectedColor     *int64     `json:"selectedColor"`
	SelectedCategory  *int64     `json:"selectedCategory"`
	SelectedRating    *int       `json:"selectedRating" validate:"omitempty,gte=1,lte=5"`
	SelectedDiscounts []string   `json:"selectedDiscounts"`
}

func Default() State {
	return State{
		PriceRange:        PriceRange{Min: decimal.Zero, Max: DefaultMaxPrice},
		SelectedDiscounts: []string{},
	}
}

// Active reports whether any field differs from Default.
func (s State) Active() bool {
	return !s.PriceRange.Min.Equal(decimal.Zero) ||
		!s.PriceRange.Max.Equal(DefaultMaxPrice) ||
		s.SelectedColor != nil ||
		s.SelectedCategory != nil ||
		s.SelectedRating != nil ||
		len(s.SelectedDiscounts) > 0
}

// ToggleDiscount returns a copy with label added when absent or removed
// when present.
func (s State) ToggleDiscount(label string) State {
	out := s.clone()
	if idx := slices.Index(out.SelectedDiscounts, label); idx >= 0 {
		out.SelectedDiscounts = slices.Delete(out.SelectedDiscounts, idx, idx+1)
		return out
	}
	out.SelectedDiscounts = append(out.SelectedDiscounts, label)
	return out
}

func (s State) clone() State {
	out := s
	out.SelectedColor = clonePtr(s.SelectedColor)
	out.SelectedCategory = clonePtr(s.SelectedCategory)
	out.SelectedRating = clonePtr(s.SelectedRating)
	out.SelectedDiscounts = append(make([]string, 0, len(s.SelectedDiscounts)), s.SelectedDiscounts...)
	return out
}

// normalize de-duplicates discounts keeping first-seen order.
func (s State) normalize() State {
	out := s.clone()
	seen := make(map[string]struct{}, len(out.SelectedDiscounts))
	kept := out.SelectedDiscounts[:0]
	for _, label := range out.SelectedDiscounts {
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		kept = append(kept, label)
	}
	out.SelectedDiscounts = kept
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Candidate is the product view a browse screen filters.
type Candidate struct {
	ProductID  int64           `json:"productId"`
	Price      decimal.Decimal `json:"price"`
	CategoryID *int64          `json:"categoryId,omitempty"`
	ColorIDs   []int64         `json:"colorIds,omitempty"`
	Rating     *float64        `json:"rating,omitempty"`
	Discount   string          `json:"discount,omitempty"`
}

// Matches applies every active criterion. An inverted price range matches
// nothing.
func (s State) Matches(c Candidate) bool {
	if c.Price.LessThan(s.PriceRange.Min) || c.Price.GreaterThan(s.PriceRange.Max) {
		return false
	}
	if s.SelectedColor != nil && !slices.Contains(c.ColorIDs, *s.SelectedColor) {
		return false
	}
	if s.SelectedCategory != nil && (c.CategoryID == nil || *c.CategoryID != *s.SelectedCategory) {
		return false
	}
	if s.SelectedRating != nil && (c.Rating == nil || *c.Rating < float64(*s.SelectedRating)) {
		return false
	}
	if len(s.SelectedDiscounts) > 0 && !slices.Contains(s.SelectedDiscounts, c.Discount) {
		return false
	}
	return true
}

// Apply returns the candidates matching s, or candidates unchanged when no
// filter is active.
func (s State) Apply(candidates []Candidate) []Candidate {
	if !s.Active() {
		return candidates
	}
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if s.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}
