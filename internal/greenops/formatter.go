package greenops

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatNumber formats an integer with thousand separators: 18248 → "18,248".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat formats f with precision decimals and thousand separators:
// FormatFloat(-1234.567, 2) → "-1,234.57". Values that round to zero lose
// their sign.
func FormatFloat(f float64, precision int) string {
	s := strconv.FormatFloat(f, 'f', precision, 64)

	sign := ""
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		s = rest
		if strings.Trim(s, "0.") != "" {
			sign = "-"
		}
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return sign + s
	}
	out := sign + FormatNumber(n)
	if hasFrac {
		out += "." + frac
	}
	return out
}

// FormatKg formats a kg CO2e amount with two decimals and its unit.
func FormatKg(kg float64) string {
	return FormatFloat(kg, 2) + " kg CO2e"
}

// FormatLarge abbreviates n as "~X.X million" or "~X.X billion", falling
// back to a separated integer below one million.
func FormatLarge(n float64) string {
	switch {
	case n >= BillionThreshold:
		return fmt.Sprintf("~%.1f billion", n/BillionThreshold)
	case n >= LargeNumberThreshold:
		return fmt.Sprintf("~%.1f million", n/LargeNumberThreshold)
	default:
		return FormatNumber(int64(math.Round(n)))
	}
}
