package engine

import (
	"fmt"

	"github.com/Joel31000/CarbonConsult/internal/factors"
)

// ReinforcedMarker is appended to the display name of reinforced concrete.
const ReinforcedMarker = " (Reinforced)"

// Detail is one positive-emission line as shown in breakdowns.
type Detail struct {
	Name string  `json:"name"`
	CO2e float64 `json:"co2e"`
}

// String renders the detail as "<name>: <co2e> kgCO2e".
func (d Detail) String() string {
	return fmt.Sprintf("%s: %.2f kgCO2e", d.Name, d.CO2e)
}

// ItemResult is the computed emission of a single line item.
type ItemResult struct {
	Category factors.Category `json:"category"`
	// Index is the position of the item within its category list.
	Index int `json:"index"`
	// Name is the display name (concrete type plus reinforced marker for concrete).
	Name string `json:"name"`
	// Factor is the resolved primary factor; 0 when the name did not resolve.
	Factor   float64 `json:"factor"`
	Resolved bool    `json:"resolved"`
	CO2e     float64 `json:"co2e"`

	// CementCO2e and RebarCO2e split CO2e for concrete items.
	CementCO2e float64 `json:"cement_co2e,omitempty"`
	RebarCO2e  float64 `json:"rebar_co2e,omitempty"`

	// RebarFactor is the rebar factor in effect, after grade resolution.
	RebarFactor float64 `json:"rebar_factor,omitempty"`
}

// InDetails reports whether the item appears in the category details, which
// only list strictly positive emissions.
func (r ItemResult) InDetails() bool {
	return r.CO2e > 0
}

// Totals holds per-category and grand totals in kg CO2e.
type Totals struct {
	Materials      float64 `json:"materials"`
	Manufacturing  float64 `json:"manufacturing"`
	Implementation float64 `json:"implementation"`
	Transport      float64 `json:"transport"`
	EndOfLife      float64 `json:"end_of_life"`
	GrandTotal     float64 `json:"grand_total"`
}

// ByCategory returns the subtotal of one category.
func (t Totals) ByCategory(c factors.Category) float64 {
	switch c {
	case factors.Materials:
		return t.Materials
	case factors.Manufacturing:
		return t.Manufacturing
	case factors.Implementation:
		return t.Implementation
	case factors.Transport:
		return t.Transport
	case factors.EndOfLife:
		return t.EndOfLife
	default:
		return 0
	}
}

// Share returns the category subtotal as a percentage of the grand total.
// It returns 0 when the grand total is not positive.
func (t Totals) Share(c factors.Category) float64 {
	if t.GrandTotal <= 0 {
		return 0
	}
	return t.ByCategory(c) / t.GrandTotal * 100
}

func (t *Totals) add(c factors.Category, v float64) {
	switch c {
	case factors.Materials:
		t.Materials += v
	case factors.Manufacturing:
		t.Manufacturing += v
	case factors.Implementation:
		t.Implementation += v
	case factors.Transport:
		t.Transport += v
	case factors.EndOfLife:
		t.EndOfLife += v
	}
}

// Result is the output of one calculation.
type Result struct {
	// Items lists every line item in document order (category, then index).
	Items   []ItemResult                  `json:"items"`
	Details map[factors.Category][]Detail `json:"-"`
	Totals  Totals                        `json:"totals"`
}

// ItemsIn returns the item results of one category in list order.
func (r *Result) ItemsIn(c factors.Category) []ItemResult {
	var out []ItemResult
	for _, it := range r.Items {
		if it.Category == c {
			out = append(out, it)
		}
	}
	return out
}

// DetailsIn returns the positive-emission details of one category.
func (r *Result) DetailsIn(c factors.Category) []Detail {
	return r.Details[c]
}

// Item returns the result for the item at index i of category c.
func (r *Result) Item(c factors.Category, i int) (ItemResult, bool) {
	for _, it := range r.Items {
		if it.Category == c && it.Index == i {
			return it, true
		}
	}
	return ItemResult{}, false
}

// CategoryShare is one line of a breakdown.
type CategoryShare struct {
	Category factors.Category `json:"category"`
	CO2e     float64          `json:"co2e"`
	Percent  float64          `json:"percent"`
}

// Breakdown returns every category subtotal with its share of the grand
// total, in canonical category order.
func (r *Result) Breakdown() []CategoryShare {
	out := make([]CategoryShare, 0, len(factors.All()))
	for _, c := range factors.All() {
		out = append(out, CategoryShare{
			Category: c,
			CO2e:     r.Totals.ByCategory(c),
			Percent:  r.Totals.Share(c),
		})
	}
	return out
}
