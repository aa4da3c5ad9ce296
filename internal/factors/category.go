// Package factors holds the emission factor tables used to turn line-item
// quantities into kg CO2e.
//
// A Table is built once (from the embedded default or a custom YAML file) and
// is read-only afterwards, so a single instance can be shared by the
// calculator, the exporter and the importer.
package factors

import (
	"fmt"
	"strings"
)

// Category identifies one of the five lifecycle stages of an offer.
type Category int

const (
	// Materials covers raw materials, including the concrete sub-model.
	Materials Category = iota

	// Manufacturing covers off-site fabrication processes, measured in hours.
	Manufacturing

	// Implementation covers on-site installation processes, measured in hours.
	Implementation

	// Transport covers freight, measured in tonne-kilometres.
	Transport

	// EndOfLife covers disposal and recycling; factors may be negative credits.
	EndOfLife
)

// numCategories is the number of defined categories.
const numCategories = 5

// All returns every category in canonical document order.
func All() []Category {
	return []Category{Materials, Manufacturing, Implementation, Transport, EndOfLife}
}

// String returns the machine key of the category (used in YAML and JSON).
func (c Category) String() string {
	switch c {
	case Materials:
		return "materials"
	case Manufacturing:
		return "manufacturing"
	case Implementation:
		return "implementation"
	case Transport:
		return "transport"
	case EndOfLife:
		return "end_of_life"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Label returns the human-readable label written in the Category column of
// exported reports.
func (c Category) Label() string {
	switch c {
	case Materials:
		return "Materials"
	case Manufacturing:
		return "Manufacturing"
	case Implementation:
		return "Implementation"
	case Transport:
		return "Transport"
	case EndOfLife:
		return "End of life"
	default:
		return c.String()
	}
}

// Valid reports whether c is one of the five defined categories.
func (c Category) Valid() bool {
	return c >= Materials && c <= EndOfLife
}

// ParseCategory resolves a category from its key or its label.
// Matching ignores case, surrounding spaces, and the separators "-", "_" and " ".
func ParseCategory(s string) (Category, bool) {
	want := normalizeCategory(s)
	if want == "" {
		return 0, false
	}
	for _, c := range All() {
		if normalizeCategory(c.String()) == want || normalizeCategory(c.Label()) == want {
			return c, true
		}
	}
	return 0, false
}

// MarshalText encodes the category as its machine key.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category key or label.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, ok := ParseCategory(string(text))
	if !ok {
		return fmt.Errorf("unknown category %q", string(text))
	}
	*c = parsed
	return nil
}

func normalizeCategory(s string) string {
	r := strings.NewReplacer("_", "", "-", "", " ", "")
	return r.Replace(strings.ToLower(strings.TrimSpace(s)))
}
