package service

import (
	"strings"

	"workshop-web/internal/models"

	"github.com/shopspring/decimal"
)

const currencySymbol = "₹"

var hundred = decimal.NewFromInt(100)

// toDecimal reads a record value as a decimal. Non-numeric values are zero.
func toDecimal(v interface{}) decimal.Decimal {
	if s, ok := v.(string); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	f, ok := models.ToFloat(v)
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// FormatMoney renders an amount with two decimals and thousands separators.
func FormatMoney(v interface{}) string {
	d := toDecimal(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + currencySymbol + groupThousands(whole) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatPercent renders v (already a percentage) with one decimal.
func FormatPercent(v interface{}) string {
	return toDecimal(v).StringFixed(1) + "%"
}

// shareOf returns key's share of the column total across data, as a
// percentage. An all-zero column yields zero shares.
func shareOf(row models.Record, data models.Dataset, key string) decimal.Decimal {
	total := sumColumn(data, key)
	if total.IsZero() {
		return decimal.Zero
	}
	v, _ := row.Get(key)
	return toDecimal(v).Mul(hundred).Div(total)
}

func sumColumn(data models.Dataset, key string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range data {
		v, _ := r.Get(key)
		total = total.Add(toDecimal(v))
	}
	return total
}
