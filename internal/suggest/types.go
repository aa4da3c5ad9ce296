// Package suggest asks a text-generation service for an assessment of an
// offer's footprint and a short list of improvement recommendations.
package suggest

import (
	"errors"
	"strings"

	"github.com/Joel31000/CarbonConsult/internal/engine"
	"github.com/Joel31000/CarbonConsult/internal/factors"
)

// Errors returned by the suggestion adapter.
var (
	// ErrSuggestionFailed wraps every backend, transport or response failure.
	ErrSuggestionFailed = errors.New("suggestion failed")
	// ErrNotConfigured is returned when no provider is selected.
	ErrNotConfigured = errors.New("suggestion provider not configured")
)

// Summary carries the category totals in kg CO2e.
type Summary struct {
	TotalEmissions          float64 `json:"totalEmissions"`
	MaterialEmissions       float64 `json:"materialEmissions"`
	ManufacturingEmissions  float64 `json:"manufacturingEmissions"`
	ImplementationEmissions float64 `json:"implementationEmissions"`
	TransportEmissions      float64 `json:"transportEmissions"`
	EndOfLifeEmissions      float64 `json:"endOfLifeEmissions"`
}

// Details carries "<name>: <co2e> kgCO2e" strings per category.
type Details struct {
	Materials      []string `json:"materials"`
	Manufacturing  []string `json:"manufacturing"`
	Implementation []string `json:"implementation"`
	Transport      []string `json:"transport"`
	EndOfLife      []string `json:"endOfLife"`
}

// Request is the payload sent to a Generator.
type Request struct {
	Summary  Summary `json:"summary"`
	Details  Details `json:"details"`
	Comments string  `json:"comments,omitempty"`
}

// Response is the structured answer of a Generator.
type Response struct {
	Assessment      string   `json:"assessment"`
	Recommendations []string `json:"recommendations"`
}

// Validate checks that the response carries an assessment and at least one
// non-blank recommendation.
func (r Response) Validate() error {
	if strings.TrimSpace(r.Assessment) == "" {
		return errors.New("response has no assessment")
	}
	for _, rec := range r.Recommendations {
		if strings.TrimSpace(rec) != "" {
			return nil
		}
	}
	return errors.New("response has no recommendations")
}

// BuildRequest shapes a calculation result and the user's comments into a
// Request. Details only list positive emissions, as in the result.
func BuildRequest(res *engine.Result, comments string) Request {
	if res == nil {
		res = &engine.Result{}
	}
	t := res.Totals
	return Request{
		Summary: Summary{
			TotalEmissions:          t.GrandTotal,
			MaterialEmissions:       t.Materials,
			ManufacturingEmissions:  t.Manufacturing,
			ImplementationEmissions: t.Implementation,
			TransportEmissions:      t.Transport,
			EndOfLifeEmissions:      t.EndOfLife,
		},
		Details: Details{
			Materials:      detailStrings(res, factors.Materials),
			Manufacturing:  detailStrings(res, factors.Manufacturing),
			Implementation: detailStrings(res, factors.Implementation),
			Transport:      detailStrings(res, factors.Transport),
			EndOfLife:      detailStrings(res, factors.EndOfLife),
		},
		Comments: strings.TrimSpace(comments),
	}
}

func detailStrings(res *engine.Result, c factors.Category) []string {
	details := res.DetailsIn(c)
	out := make([]string, 0, len(details))
	for _, d := range details {
		out = append(out, d.String())
	}
	return out
}
