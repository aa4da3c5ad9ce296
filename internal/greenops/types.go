// Package greenops turns an offer's total footprint (kg CO2e) into relatable
// equivalencies such as miles driven or smartphones charged, using EPA
// conversion factors, and formats the figures for display.
package greenops

import "fmt"

// EquivalencyType is a category of equivalency.
type EquivalencyType int

const (
	// EquivalencyMilesDriven is miles driven in an average passenger vehicle.
	EquivalencyMilesDriven EquivalencyType = iota

	// EquivalencySmartphonesCharged is full smartphone charges.
	EquivalencySmartphonesCharged

	// EquivalencyTreeSeedlings is tree seedlings grown for 10 years.
	EquivalencyTreeSeedlings

	// EquivalencyHomeDays is days of average US home electricity use.
	EquivalencyHomeDays
)

// String returns the name of the equivalency type.
func (e EquivalencyType) String() string {
	switch e {
	case EquivalencyMilesDriven:
		return "MilesDriven"
	case EquivalencySmartphonesCharged:
		return "SmartphonesCharged"
	case EquivalencyTreeSeedlings:
		return "TreeSeedlings"
	case EquivalencyHomeDays:
		return "HomeDays"
	default:
		return fmt.Sprintf("EquivalencyType(%d)", e)
	}
}

// EquivalencyResult is one computed equivalency.
type EquivalencyResult struct {
	Type           EquivalencyType `json:"type"`
	Value          float64         `json:"value"`
	FormattedValue string          `json:"formatted_value"`
	Label          string          `json:"label"`
}

// EquivalencyOutput holds every equivalency of a total.
type EquivalencyOutput struct {
	// TotalKg is the total the equivalencies were computed from.
	TotalKg float64 `json:"total_kg"`

	Results []EquivalencyResult `json:"results"`

	// DisplayText is the prose form, e.g.
	// "Equivalent to driving ~781 miles or charging ~18,248 smartphones".
	DisplayText string `json:"display_text"`

	// CompactText is the short form, e.g. "(≈ 781 mi, 18,248 phones)".
	CompactText string `json:"compact_text"`

	// IsEmpty is set when no equivalency applies: totals below the threshold
	// and net credits.
	IsEmpty bool `json:"is_empty"`
}
