// Package core provides money formatting helpers.
//
// Amounts are kept as decimals end to end so that sums do not depend on the
// order entries arrive in. Conversion to float64 happens only at the JSON edge.
package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// FormatDollars renders an amount with two decimals and a leading dollar sign,
// e.g. "$12.50" or "$-3.00".
func FormatDollars(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Percent returns part as a percentage of total, or zero when total is not positive.
func Percent(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred)
}

// Float converts an amount for JSON output.
func Float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
