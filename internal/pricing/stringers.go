package pricing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// StringerLine is one stringer to price and the lookup it needs.
type StringerLine struct {
	Component  Component
	MaterialID int64
	Width      decimal.Decimal
	Thickness  decimal.Decimal
	Length     decimal.Decimal
}

// Label names the stringer by side and board size, e.g. "stringer left 1x9.25".
func (l StringerLine) Label() string {
	side := strings.TrimPrefix(string(l.Component), "stringer_")
	return "stringer " + side + " " + l.Thickness.String() + "x" + l.Width.String()
}

// Dimensions returns the unit-price measurements of the stringer board.
func (l StringerLine) Dimensions() Dimensions {
	return Dimensions{Length: l.Length, Width: l.Width}
}

// StringerProfile is the board encoded by a stringer type token such as "1x9.25_Poplar".
type StringerProfile struct {
	Thickness decimal.Decimal
	Width     decimal.Decimal
	Species   string
}

// ParseStringerType decodes "<thickness>x<width>[_<species>]".
func ParseStringerType(token string) (StringerProfile, error) {
	size, species, _ := strings.Cut(strings.TrimSpace(token), "_")
	t, w, ok := strings.Cut(strings.ToLower(size), "x")
	if !ok {
		return StringerProfile{}, invalidOrder("stringer type %q is not <thickness>x<width>", token)
	}
	thickness, err := decimal.NewFromString(t)
	if err != nil {
		return StringerProfile{}, invalidOrder("stringer type %q: bad thickness", token)
	}
	width, err := decimal.NewFromString(w)
	if err != nil {
		return StringerProfile{}, invalidOrder("stringer type %q: bad width", token)
	}
	if !thickness.IsPositive() || !width.IsPositive() {
		return StringerProfile{}, invalidDimension("stringer type %q must have positive sizes", token)
	}
	return StringerProfile{Thickness: thickness, Width: width, Species: species}, nil
}

// StringerLength is the diagonal of the flight: total rise against total run,
// where each of the NumRisers-1 goings is RoughCutWidth less the nosing.
func StringerLength(o Order) (decimal.Decimal, error) {
	going := o.RoughCutWidth.Sub(o.NoseSize)
	if going.IsNegative() {
		return decimal.Zero, invalidDimension("nose size %s exceeds rough cut width %s", o.NoseSize, o.RoughCutWidth)
	}
	run := going.Mul(decimal.NewFromInt(int64(o.NumRisers - 1)))
	length := math.Hypot(o.FloorToFloor.InexactFloat64(), run.InexactFloat64())
	return decimal.NewFromFloat(length).Round(2), nil
}

// ResolveStringerLines decides which stringers an order prices.
func ResolveStringerLines(o Order) ([]StringerLine, error) {
	length, err := StringerLength(o)
	if err != nil {
		return nil, err
	}

	mode := o.Stringers
	if mode == nil {
		mode = UniformStringers{}
	}

	switch m := mode.(type) {
	case UniformStringers:
		profile, err := ParseStringerType(o.StringerType)
		if err != nil {
			return nil, err
		}
		lines := make([]StringerLine, 0, 2)
		for _, c := range []Component{ComponentStringerLeft, ComponentStringerRight} {
			lines = append(lines, StringerLine{
				Component:  c,
				MaterialID: o.StringerMaterialID,
				Width:      profile.Width,
				Thickness:  profile.Thickness,
				Length:     length,
			})
		}
		return lines, nil

	case PerSideStringers:
		sides := []struct {
			component Component
			side      *StringerSide
		}{
			{ComponentStringerLeft, m.Left},
			{ComponentStringerRight, m.Right},
			{ComponentStringerCenter, m.Center},
		}
		lines := make([]StringerLine, 0, len(sides))
		for _, s := range sides {
			if s.side == nil {
				continue
			}
			if !s.side.Width.IsPositive() || !s.side.Thickness.IsPositive() {
				return nil, invalidDimension("%s needs positive width and thickness, got %sx%s",
					s.component, s.side.Thickness, s.side.Width)
			}
			lines = append(lines, StringerLine{
				Component:  s.component,
				MaterialID: s.side.MaterialID,
				Width:      s.side.Width,
				Thickness:  s.side.Thickness,
				Length:     length,
			})
		}
		return lines, nil

	default:
		return nil, invalidOrder("unsupported stringer mode %T", mode)
	}
}
