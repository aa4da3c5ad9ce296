package greenops

import (
	"fmt"
	"math"
)

// ForTotal computes the equivalencies of a total in kg CO2e.
//
// Totals below MinEquivalencyThresholdKg, including net credits (negative
// totals), yield an empty output and no error. Non-finite totals yield
// ErrCalculationOverflow.
func ForTotal(kg float64) (EquivalencyOutput, error) {
	if math.IsInf(kg, 0) || math.IsNaN(kg) {
		return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
	}
	if kg < MinEquivalencyThresholdKg {
		return EquivalencyOutput{TotalKg: kg, IsEmpty: true}, nil
	}

	results := []EquivalencyResult{
		equivalency(EquivalencyMilesDriven, kg/EPAMilesDrivenFactor, "miles driven"),
		equivalency(EquivalencySmartphonesCharged, kg/EPASmartphoneChargeFactor, "smartphones charged"),
		equivalency(EquivalencyTreeSeedlings, kg/EPATreeSeedlingFactor, "tree seedlings grown for 10 years"),
		equivalency(EquivalencyHomeDays, kg/EPAHomeDayFactor, "days of home electricity"),
	}
	for _, r := range results {
		if math.IsInf(r.Value, 0) {
			return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
		}
	}

	miles, phones := results[0].FormattedValue, results[1].FormattedValue
	return EquivalencyOutput{
		TotalKg:     kg,
		Results:     results,
		DisplayText: fmt.Sprintf("Equivalent to driving ~%s miles or charging ~%s smartphones", miles, phones),
		CompactText: fmt.Sprintf("(≈ %s mi, %s phones)", miles, phones),
	}, nil
}

func equivalency(t EquivalencyType, v float64, label string) EquivalencyResult {
	return EquivalencyResult{Type: t, Value: v, FormattedValue: formatEquivalencyValue(v), Label: label}
}

func formatEquivalencyValue(v float64) string {
	if v >= LargeNumberThreshold {
		return FormatLarge(v)
	}
	return FormatNumber(int64(math.Round(v)))
}
