package pricing

import "github.com/shopspring/decimal"

// BoardType is the category of component used to select pricing rules.
type BoardType string

const (
	BoardTread    BoardType = "tread"
	BoardRiser    BoardType = "riser"
	BoardStringer BoardType = "stringer"
)

// TreadType describes how a step is finished on its sides.
type TreadType string

const (
	TreadBox        TreadType = "box"
	TreadOpenLeft   TreadType = "open_left"
	TreadOpenRight  TreadType = "open_right"
	TreadDoubleOpen TreadType = "double_open"
	TreadFloating   TreadType = "floating"
)

// risersPerTread is the explicit riser policy per tread type.
// Open-sided treads still close the front with a riser; floating stairs have none.
var risersPerTread = map[TreadType]int{
	TreadBox:        1,
	TreadOpenLeft:   1,
	TreadOpenRight:  1,
	TreadDoubleOpen: 1,
	TreadFloating:   0,
}

// RisersFor returns how many risers a tread of type t needs.
func RisersFor(t TreadType) (int, bool) {
	n, ok := risersPerTread[t]
	return n, ok
}

// TreadSpec is one requested step.
type TreadSpec struct {
	RiserNumber int
	Type        TreadType
	StairWidth  decimal.Decimal
}

// StringerSide is the board used for one independently priced stringer.
type StringerSide struct {
	Width      decimal.Decimal
	Thickness  decimal.Decimal
	MaterialID int64
}

// StringerMode selects how stringers are priced. It is implemented only by
// UniformStringers and PerSideStringers.
type StringerMode interface {
	stringerMode()
}

// UniformStringers prices a left and right stringer from the order's
// StringerType and StringerMaterialID.
type UniformStringers struct{}

// PerSideStringers prices each present side with its own board and material.
// A nil side is not priced.
type PerSideStringers struct {
	Left   *StringerSide
	Right  *StringerSide
	Center *StringerSide
}

func (UniformStringers) stringerMode() {}
func (PerSideStringers) stringerMode() {}

// SpecialPart is a named surcharge item.
type SpecialPart struct {
	Kind     string
	Name     string
	Quantity int
	// Price is the flat unit price, or the rate per linear foot for linear kinds.
	Price  decimal.Decimal
	Length decimal.Decimal
}

// Order is a complete stair order to be priced.
type Order struct {
	JobID               int64
	FloorToFloor        decimal.Decimal
	NumRisers           int
	Treads              []TreadSpec
	TreadMaterialID     int64
	RiserMaterialID     int64
	StringerMaterialID  int64
	RoughCutWidth       decimal.Decimal
	NoseSize            decimal.Decimal
	StringerType        string
	Stringers           StringerMode
	IncludeLandingTread bool
	SpecialParts        []SpecialPart
}

// Component identifies what a breakdown line prices.
type Component string

const (
	ComponentTread          Component = "tread"
	ComponentRiser          Component = "riser"
	ComponentStringerLeft   Component = "stringer_left"
	ComponentStringerRight  Component = "stringer_right"
	ComponentStringerCenter Component = "stringer_center"
	ComponentLandingTread   Component = "landing_tread"
	ComponentSpecialPart    Component = "special_part"
)

// Line is one priced entry of a breakdown.
type Line struct {
	Component Component       `json:"component"`
	Label     string          `json:"label,omitempty"`
	RuleID    int64           `json:"ruleId,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Breakdown is the result of pricing an order.
type Breakdown struct {
	Lines    []Line          `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}
