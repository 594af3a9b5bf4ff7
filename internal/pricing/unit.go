package pricing

import "github.com/shopspring/decimal"

// CurrencyPlaces is the minor-unit precision every unit price is rounded to.
const CurrencyPlaces = 2

// Dimensions are the measurements, in inches, a unit price is computed from.
type Dimensions struct {
	Length decimal.Decimal
	Width  decimal.Decimal
}

// UnitPrice applies rule to one component:
//
//	(base + lengthRate*length + widthRate*width + mitre) * multiplier
//
// The result is rounded half-up to CurrencyPlaces once; intermediate terms are exact.
func UnitPrice(rule Rule, dims Dimensions) (decimal.Decimal, error) {
	if dims.Length.IsNegative() {
		return decimal.Zero, invalidDimension("length %s is negative", dims.Length)
	}
	if dims.Width.IsNegative() {
		return decimal.Zero, invalidDimension("width %s is negative", dims.Width)
	}

	raw := rule.BasePrice.
		Add(rule.LengthChargeRate.Mul(dims.Length)).
		Add(rule.WidthChargeRate.Mul(dims.Width)).
		Add(rule.MitreCharge).
		Mul(rule.MaterialMultiplier)

	return roundCurrency(raw), nil
}

// roundCurrency rounds half away from zero, which is half-up for the
// non-negative amounts produced here.
func roundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}
