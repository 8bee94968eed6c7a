// Package numeric parses Greek-formatted monetary and area figures.
//
// The convention on eauction.gr and in attached auction documents uses a
// period as the thousands separator and a comma as the decimal separator,
// e.g. "94.000,50 €" means 94000.50.
package numeric

import (
	"strconv"
	"strings"
)

// Unavailable is the sentinel the source uses for missing values.
const Unavailable = "N/A"

// Parse converts a Greek-formatted number string to a float.
// It strips currency symbols and whitespace first. The second return
// value is false when the input is empty, the N/A sentinel, or not
// reducible to a valid number.
func Parse(s string) (float64, bool) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" || cleaned == Unavailable {
		return 0, false
	}

	for _, sym := range []string{"€", "EUR", "$"} {
		cleaned = strings.ReplaceAll(cleaned, sym, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	hasComma := strings.Contains(cleaned, ",")
	hasPeriod := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasPeriod:
		// 94.000,50: periods are thousands separators, comma is decimal.
		parts := strings.Split(cleaned, ",")
		if len(parts) != 2 {
			return 0, false
		}
		cleaned = strings.ReplaceAll(parts[0], ".", "") + "." + parts[1]

	case hasComma:
		// 94,50: lone comma is the decimal separator.
		cleaned = strings.ReplaceAll(cleaned, ",", ".")

	case hasPeriod:
		parts := strings.Split(cleaned, ".")
		if len(parts) > 2 {
			// 1.234.567: all periods are thousands separators.
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		} else if len(parts) == 2 && len(parts[1]) == 3 {
			// 94.000: a single period with three trailing digits is a
			// thousands separator, not a decimal point.
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
		// 94.5 or 94.50 stays a decimal.
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
