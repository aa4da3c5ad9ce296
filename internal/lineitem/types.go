// Package lineitem defines the typed line items of an offer and the offer
// document that groups them by lifecycle category.
package lineitem

import (
	"github.com/Joel31000/CarbonConsult/internal/factors"
)

// MaterialItem is a raw-material line. Quantity is in kg, or in m³ when the
// material is factors.ConcreteMaterial.
type MaterialItem struct {
	Material string
	Quantity float64

	// Concrete is only read when Material is factors.ConcreteMaterial.
	Concrete *ConcreteSpec
}

// ConcreteSpec carries the concrete sub-model inputs.
type ConcreteSpec struct {
	// Type names an entry of the concrete-mix table.
	Type string
	// CementMassPerVolume is kg of cement per m³ of concrete.
	CementMassPerVolume float64
	// Rebar is non-nil when the concrete is reinforced.
	Rebar *RebarSpec
}

// RebarSpec carries reinforcement inputs for reinforced concrete.
type RebarSpec struct {
	// Grade optionally names the rebar table entry Factor was taken from.
	Grade string
	// MassPerVolume is kg of steel per m³ of concrete.
	MassPerVolume float64
	// Factor is kg CO2e per kg of steel.
	Factor float64
}

// NewConcreteItem builds a concrete material line. A nil rebar means plain
// (unreinforced) concrete.
func NewConcreteItem(concreteType string, volume, cementMass float64, rebar *RebarSpec) MaterialItem {
	return MaterialItem{
		Material: factors.ConcreteMaterial,
		Quantity: volume,
		Concrete: &ConcreteSpec{
			Type:                concreteType,
			CementMassPerVolume: cementMass,
			Rebar:               rebar,
		},
	}
}

// IsConcrete reports whether the item is computed with the concrete sub-model.
func (m MaterialItem) IsConcrete() bool {
	return m.Material == factors.ConcreteMaterial
}

// IsReinforced reports whether the item is reinforced concrete.
func (m MaterialItem) IsReinforced() bool {
	return m.IsConcrete() && m.Concrete != nil && m.Concrete.Rebar != nil
}

// Unit returns the quantity unit label of the item.
func (m MaterialItem) Unit() string {
	if m.IsConcrete() {
		return "m³"
	}
	return "kg"
}

// ProcessItem is a manufacturing or implementation line, measured in hours.
// Which of the two it is depends on the offer list holding it.
type ProcessItem struct {
	Process       string
	DurationHours float64
}

// TransportItem is a freight leg.
type TransportItem struct {
	Mode         string
	DistanceKm   float64
	WeightTonnes float64
}

// EndOfLifeItem is a disposal or recycling line.
type EndOfLifeItem struct {
	Method   string
	WeightKg float64
}

// Offer is the complete in-memory document of one session: five ordered
// line-item lists plus free-text metadata.
type Offer struct {
	// Label names the offer; it feeds the export file name.
	Label string

	Materials      []MaterialItem
	Manufacturing  []ProcessItem
	Implementation []ProcessItem
	Transport      []TransportItem
	EndOfLife      []EndOfLifeItem

	// Comments holds user assumptions forwarded to the suggestion service.
	Comments string
}

// Count returns the number of line items in a category.
func (o *Offer) Count(c factors.Category) int {
	switch c {
	case factors.Materials:
		return len(o.Materials)
	case factors.Manufacturing:
		return len(o.Manufacturing)
	case factors.Implementation:
		return len(o.Implementation)
	case factors.Transport:
		return len(o.Transport)
	case factors.EndOfLife:
		return len(o.EndOfLife)
	default:
		return 0
	}
}

// Len returns the total number of line items.
func (o *Offer) Len() int {
	n := 0
	for _, c := range factors.All() {
		n += o.Count(c)
	}
	return n
}

// ReplaceItems swaps every line-item list for those of src, keeping the
// receiver's Label and Comments.
func (o *Offer) ReplaceItems(src *Offer) {
	c := src.Clone()
	o.Materials = c.Materials
	o.Manufacturing = c.Manufacturing
	o.Implementation = c.Implementation
	o.Transport = c.Transport
	o.EndOfLife = c.EndOfLife
}

// Clone returns a deep copy of the offer.
func (o *Offer) Clone() *Offer {
	c := &Offer{
		Label:          o.Label,
		Comments:       o.Comments,
		Manufacturing:  cloneSlice(o.Manufacturing),
		Implementation: cloneSlice(o.Implementation),
		Transport:      cloneSlice(o.Transport),
		EndOfLife:      cloneSlice(o.EndOfLife),
	}
	if o.Materials != nil {
		c.Materials = make([]MaterialItem, len(o.Materials))
		for i, m := range o.Materials {
			c.Materials[i] = m.clone()
		}
	}
	return c
}

func (m MaterialItem) clone() MaterialItem {
	if m.Concrete == nil {
		return m
	}
	cs := *m.Concrete
	if cs.Rebar != nil {
		r := *cs.Rebar
		cs.Rebar = &r
	}
	m.Concrete = &cs
	return m
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
