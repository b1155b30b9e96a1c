// Package money formats storefront prices, which are whole Vietnamese dong.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	currencySymbol = "₫"
	groupSeparator = "."
	zeroVND        = "0 " + currencySymbol
)

// FormatVND renders amount rounded to whole dong with vi-VN digit grouping,
// e.g. 1234567.4 -> "1.234.567 ₫".
func FormatVND(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	digits := rounded.Abs().String()

	var b strings.Builder
	if rounded.Sign() < 0 {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(groupSeparator)
		b.WriteString(digits[i : i+3])
	}
	b.WriteString(" ")
	b.WriteString(currencySymbol)
	return b.String()
}

// FormatVNDValue accepts the loosely typed amounts that arrive from JSON or
// form input. Missing or unparseable amounts render as "0 ₫".
func FormatVNDValue(v any) string {
	switch amount := v.(type) {
	case nil:
		return zeroVND
	case decimal.Decimal:
		return FormatVND(amount)
	case *decimal.Decimal:
		if amount == nil {
			return zeroVND
		}
		return FormatVND(*amount)
	case decimal.NullDecimal:
		if !amount.Valid {
			return zeroVND
		}
		return FormatVND(amount.Decimal)
	case int:
		return FormatVND(decimal.NewFromInt(int64(amount)))
	case int64:
		return FormatVND(decimal.NewFromInt(amount))
	case float64:
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			return zeroVND
		}
		return FormatVND(decimal.NewFromFloat(amount))
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
		if err != nil {
			return zeroVND
		}
		return FormatVND(parsed)
	}
	return zeroVND
}
