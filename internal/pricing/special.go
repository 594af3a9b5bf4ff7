package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

type partPricer func(SpecialPart) (decimal.Decimal, error)

var inchesPerFoot = decimal.NewFromInt(12)

// specialParts lists every special-part kind that can be priced.
var specialParts = map[string]partPricer{
	"newel_post":  flatPart,
	"baluster":    flatPart,
	"bracket":     flatPart,
	"custom":      flatPart,
	"handrail":    linearPart,
	"skirt_board": linearPart,
	"shoe_rail":   linearPart,
}

// SpecialPartKinds returns the known special-part kinds in sorted order.
func SpecialPartKinds() []string {
	kinds := make([]string, 0, len(specialParts))
	for k := range specialParts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func flatPart(p SpecialPart) (decimal.Decimal, error) {
	if p.Price.IsNegative() {
		return decimal.Zero, invalidOrder("special part %q has negative price", p.Kind)
	}
	return roundCurrency(p.Price), nil
}

// linearPart charges Price per linear foot of Length inches.
func linearPart(p SpecialPart) (decimal.Decimal, error) {
	if p.Price.IsNegative() {
		return decimal.Zero, invalidOrder("special part %q has negative rate", p.Kind)
	}
	if p.Length.IsNegative() {
		return decimal.Zero, invalidDimension("special part %q has negative length", p.Kind)
	}
	return roundCurrency(p.Price.Mul(p.Length).Div(inchesPerFoot)), nil
}

func priceSpecialPart(p SpecialPart) (Line, error) {
	pricer, ok := specialParts[p.Kind]
	if !ok {
		return Line{}, fmtUnknownPart(p.Kind)
	}
	if p.Quantity < 0 {
		return Line{}, invalidOrder("special part %q has negative quantity", p.Kind)
	}
	qty := p.Quantity
	if qty == 0 {
		qty = 1
	}

	unit, err := pricer(p)
	if err != nil {
		return Line{}, err
	}

	label := p.Name
	if label == "" {
		label = p.Kind
	}
	return Line{
		Component: ComponentSpecialPart,
		Label:     label,
		UnitPrice: unit,
		Quantity:  qty,
		LineTotal: unit.Mul(decimal.NewFromInt(int64(qty))),
	}, nil
}
