package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Rule is one rate row for a board type and material, optionally limited to a
// width bracket. A nil bound is open-ended.
type Rule struct {
	ID                 int64
	BoardType          BoardType
	MaterialID         int64
	MinWidth           *decimal.Decimal
	MaxWidth           *decimal.Decimal
	BasePrice          decimal.Decimal
	LengthChargeRate   decimal.Decimal
	WidthChargeRate    decimal.Decimal
	MitreCharge        decimal.Decimal
	MaterialMultiplier decimal.Decimal
	Notes              string
}

// RuleStore supplies candidate rules. Implementations return every active rule
// for the board type and material whose bracket covers width; they must be
// safe for concurrent use.
type RuleStore interface {
	Rules(ctx context.Context, boardType BoardType, materialID int64, width decimal.Decimal) ([]Rule, error)
}

// Validate reports whether the rule's rates can be used for pricing.
func (r Rule) Validate() error {
	if r.BoardType == "" {
		return errors.New("board type is required")
	}
	checks := []struct {
		name  string
		value decimal.Decimal
	}{
		{"base_price", r.BasePrice},
		{"length_charge_rate", r.LengthChargeRate},
		{"width_charge_rate", r.WidthChargeRate},
		{"mitre_charge", r.MitreCharge},
		{"material_multiplier", r.MaterialMultiplier},
	}
	for _, c := range checks {
		if c.value.IsNegative() {
			return fmt.Errorf("%s must be >= 0, got %s", c.name, c.value)
		}
	}
	if r.MinWidth != nil && r.MaxWidth != nil && r.MinWidth.GreaterThan(*r.MaxWidth) {
		return fmt.Errorf("min_width %s is greater than max_width %s", r.MinWidth, r.MaxWidth)
	}
	return nil
}

// Covers reports whether width falls inside the rule's bracket, bounds inclusive.
func (r Rule) Covers(width decimal.Decimal) bool {
	if r.MinWidth != nil && width.LessThan(*r.MinWidth) {
		return false
	}
	if r.MaxWidth != nil && width.GreaterThan(*r.MaxWidth) {
		return false
	}
	return true
}

// specificity ranks brackets: closed range 2, half-open 1, any width 0.
func (r Rule) specificity() int {
	n := 0
	if r.MinWidth != nil {
		n++
	}
	if r.MaxWidth != nil {
		n++
	}
	return n
}

// SelectRule picks the single most specific rule covering width.
func SelectRule(candidates []Rule, boardType BoardType, materialID int64, width decimal.Decimal) (Rule, error) {
	best := -1
	var matches []Rule
	for _, r := range candidates {
		if r.BoardType != boardType || r.MaterialID != materialID || !r.Covers(width) {
			continue
		}
		switch s := r.specificity(); {
		case s > best:
			best = s
			matches = append(matches[:0], r)
		case s == best:
			matches = append(matches, r)
		}
	}
	if len(matches) != 1 {
		return Rule{}, &RuleNotFoundError{
			BoardType:  boardType,
			MaterialID: materialID,
			Width:      width,
			Candidates: len(matches),
		}
	}
	return matches[0], nil
}
