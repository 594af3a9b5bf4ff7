package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Calculator prices stair orders against a rule store. It holds no mutable
// state and may be shared between goroutines.
type Calculator struct {
	rules RuleStore
}

// NewCalculator returns a Calculator reading rules from store.
func NewCalculator(store RuleStore) *Calculator {
	return &Calculator{rules: store}
}

// Calculate prices every component of o. Any failure aborts the whole
// calculation; a partial breakdown is never returned.
func (c *Calculator) Calculate(ctx context.Context, o Order) (Breakdown, error) {
	if err := validateOrder(o); err != nil {
		return Breakdown{}, err
	}

	var lines []Line

	treadDims := Dimensions{Width: o.RoughCutWidth.Add(o.NoseSize)}
	riserHeight := o.FloorToFloor.Div(decimal.NewFromInt(int64(o.NumRisers)))

	var top TreadSpec
	for i, t := range o.Treads {
		if i == 0 || t.RiserNumber > top.RiserNumber {
			top = t
		}

		treadDims.Length = t.StairWidth
		line, err := c.priceBoard(ctx, BoardTread, o.TreadMaterialID, t.StairWidth, treadDims)
		if err != nil {
			return Breakdown{}, err
		}
		line.Component = ComponentTread
		line.Label = "tread " + strconv.Itoa(t.RiserNumber)
		lines = append(lines, line)
	}

	for _, t := range o.Treads {
		risers, _ := RisersFor(t.Type)
		if risers == 0 {
			continue
		}
		dims := Dimensions{Length: t.StairWidth, Width: riserHeight}
		line, err := c.priceBoard(ctx, BoardRiser, o.RiserMaterialID, t.StairWidth, dims)
		if err != nil {
			return Breakdown{}, err
		}
		line.Component = ComponentRiser
		line.Label = "riser " + strconv.Itoa(t.RiserNumber)
		line.Quantity = risers
		line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(risers)))
		lines = append(lines, line)
	}

	if o.IncludeLandingTread {
		treadDims.Length = top.StairWidth
		line, err := c.priceBoard(ctx, BoardTread, o.TreadMaterialID, top.StairWidth, treadDims)
		if err != nil {
			return Breakdown{}, err
		}
		line.Component = ComponentLandingTread
		line.Label = "landing tread"
		lines = append(lines, line)
	}

	stringers, err := ResolveStringerLines(o)
	if err != nil {
		return Breakdown{}, err
	}
	for _, s := range stringers {
		line, err := c.priceBoard(ctx, BoardStringer, s.MaterialID, s.Width, s.Dimensions())
		if err != nil {
			return Breakdown{}, err
		}
		line.Component = s.Component
		line.Label = s.Label()
		lines = append(lines, line)
	}

	for _, p := range o.SpecialParts {
		line, err := priceSpecialPart(p)
		if err != nil {
			return Breakdown{}, err
		}
		lines = append(lines, line)
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
	}

	return Breakdown{Lines: lines, Subtotal: subtotal, Total: subtotal}, nil
}

// priceBoard resolves the rule for one board and prices a single unit of it.
func (c *Calculator) priceBoard(ctx context.Context, boardType BoardType, materialID int64, width decimal.Decimal, dims Dimensions) (Line, error) {
	rule, err := c.lookup(ctx, boardType, materialID, width)
	if err != nil {
		return Line{}, err
	}
	unit, err := UnitPrice(rule, dims)
	if err != nil {
		return Line{}, err
	}
	return Line{RuleID: rule.ID, UnitPrice: unit, Quantity: 1, LineTotal: unit}, nil
}

func (c *Calculator) lookup(ctx context.Context, boardType BoardType, materialID int64, width decimal.Decimal) (Rule, error) {
	candidates, err := c.rules.Rules(ctx, boardType, materialID, width)
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) || errors.Is(err, ErrStoreUnavailable) {
			return Rule{}, err
		}
		return Rule{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	rule, err := SelectRule(candidates, boardType, materialID, width)
	if err != nil {
		return Rule{}, err
	}
	if err := rule.Validate(); err != nil {
		return Rule{}, fmt.Errorf("%w: rule %d: %v", ErrRuleNotFound, rule.ID, err)
	}
	return rule, nil
}

func validateOrder(o Order) error {
	if o.NumRisers <= 0 {
		return invalidOrder("numRisers must be positive, got %d", o.NumRisers)
	}
	if !o.FloorToFloor.IsPositive() {
		return invalidDimension("floorToFloor must be positive, got %s", o.FloorToFloor)
	}
	if !o.RoughCutWidth.IsPositive() {
		return invalidDimension("roughCutWidth must be positive, got %s", o.RoughCutWidth)
	}
	if o.NoseSize.IsNegative() {
		return invalidDimension("noseSize must not be negative, got %s", o.NoseSize)
	}

	for i, t := range o.Treads {
		if t.RiserNumber < 1 || t.RiserNumber > o.NumRisers {
			return invalidOrder("treads[%d].riserNumber %d outside 1..%d", i, t.RiserNumber, o.NumRisers)
		}
		if _, ok := RisersFor(t.Type); !ok {
			return invalidOrder("treads[%d].type %q is not a known tread type", i, t.Type)
		}
		if !t.StairWidth.IsPositive() {
			return invalidDimension("treads[%d].stairWidth must be positive, got %s", i, t.StairWidth)
		}
	}

	if o.IncludeLandingTread && len(o.Treads) == 0 {
		return invalidOrder("landing tread requires at least one tread for its geometry")
	}
	return nil
}
