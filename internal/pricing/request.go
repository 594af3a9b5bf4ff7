package pricing

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// OrderRequest is the JSON shape of a stair order as sent by clients.
type OrderRequest struct {
	JobID               int64                `json:"jobId"`
	FloorToFloor        decimal.Decimal      `json:"floorToFloor"`
	NumRisers           int                  `json:"numRisers"`
	Treads              []TreadRequest       `json:"treads"`
	TreadMaterialID     int64                `json:"treadMaterialId"`
	RiserMaterialID     int64                `json:"riserMaterialId"`
	StringerMaterialID  int64                `json:"stringerMaterialId"`
	RoughCutWidth       decimal.Decimal      `json:"roughCutWidth"`
	NoseSize            decimal.Decimal      `json:"noseSize"`
	StringerType        string               `json:"stringerType"`
	IndividualStringers *IndividualStringers `json:"individualStringers,omitempty"`
	IncludeLandingTread bool                 `json:"includeLandingTread"`
	SpecialParts        []SpecialPartRequest `json:"specialParts,omitempty"`
}

type TreadRequest struct {
	RiserNumber int             `json:"riserNumber"`
	Type        string          `json:"type"`
	StairWidth  decimal.Decimal `json:"stairWidth"`
}

type StringerSideRequest struct {
	Width      decimal.Decimal `json:"width"`
	Thickness  decimal.Decimal `json:"thickness"`
	MaterialID int64           `json:"materialId"`
}

type IndividualStringers struct {
	Left   *StringerSideRequest `json:"left"`
	Right  *StringerSideRequest `json:"right"`
	Center *StringerSideRequest `json:"center"`
}

type SpecialPartRequest struct {
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	Quantity int             `json:"quantity,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Length   decimal.Decimal `json:"length"`
}

// DecodeOrderRequest reads one JSON order from r.
func DecodeOrderRequest(r io.Reader) (OrderRequest, error) {
	var req OrderRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return OrderRequest{}, fmt.Errorf("%w: decode order: %v", ErrInvalidOrder, err)
	}
	return req, nil
}

// Order converts the request into the calculator's input. A missing
// individualStringers object selects uniform stringers.
func (r OrderRequest) Order() Order {
	o := Order{
		JobID:               r.JobID,
		FloorToFloor:        r.FloorToFloor,
		NumRisers:           r.NumRisers,
		TreadMaterialID:     r.TreadMaterialID,
		RiserMaterialID:     r.RiserMaterialID,
		StringerMaterialID:  r.StringerMaterialID,
		RoughCutWidth:       r.RoughCutWidth,
		NoseSize:            r.NoseSize,
		StringerType:        r.StringerType,
		Stringers:           UniformStringers{},
		IncludeLandingTread: r.IncludeLandingTread,
	}

	for _, t := range r.Treads {
		o.Treads = append(o.Treads, TreadSpec{
			RiserNumber: t.RiserNumber,
			Type:        TreadType(t.Type),
			StairWidth:  t.StairWidth,
		})
	}

	if s := r.IndividualStringers; s != nil {
		o.Stringers = PerSideStringers{
			Left:   s.Left.side(),
			Right:  s.Right.side(),
			Center: s.Center.side(),
		}
	}

	for _, p := range r.SpecialParts {
		o.SpecialParts = append(o.SpecialParts, SpecialPart{
			Kind:     p.Type,
			Name:     p.Name,
			Quantity: p.Quantity,
			Price:    p.Price,
			Length:   p.Length,
		})
	}
	return o
}

func (s *StringerSideRequest) side() *StringerSide {
	if s == nil {
		return nil
	}
	return &StringerSide{Width: s.Width, Thickness: s.Thickness, MaterialID: s.MaterialID}
}
