package models

import "github.com/shopspring/decimal"

// Purity designations recognized by the pipeline.
const (
	Purity24K = "24K"
	Purity22K = "22K"
	Purity21K = "21K"
	Purity18K = "18K"
	Purity14K = "14K"
	Purity9K  = "9K"
)

// purityFractions maps a fineness designation to its fractional gold
// content. The 22K value follows the trade convention of 0.9167 rather than
// the exact 22/24.
var purityFractions = map[string]decimal.Decimal{
	Purity24K: decimal.RequireFromString("1"),
	Purity22K: decimal.RequireFromString("0.9167"),
	Purity21K: decimal.RequireFromString("0.875"),
	Purity18K: decimal.RequireFromString("0.75"),
	Purity14K: decimal.RequireFromString("0.5833"),
	Purity9K:  decimal.RequireFromString("0.375"),
}

// PurityFraction returns the gold fraction for a designation such as "22K".
func PurityFraction(designation string) (decimal.Decimal, bool) {
	f, ok := purityFractions[designation]
	return f, ok
}

// finenessBand maps a raw fineness reading to a designation. The legacy
// store records purity as a fraction with per-item tolerance, so bands are
// ranges rather than exact values.
type finenessBand struct {
	lo, hi      float64
	designation string
}

var finenessBands = []finenessBand{
	{0.995, 1.0, Purity24K},
	{0.916, 0.926, Purity22K},
	{0.875, 0.880, Purity21K},
	{0.750, 0.760, Purity18K},
	{0.583, 0.590, Purity14K},
	{0.375, 0.400, Purity9K},
}

// PurityFromFineness classifies a raw fineness fraction into a designation.
// Readings outside every band return false; callers exclude such rows from
// purity math and log them rather than guessing.
func PurityFromFineness(fineness float64) (string, bool) {
	for _, b := range finenessBands {
		if fineness >= b.lo && fineness <= b.hi {
			return b.designation, true
		}
	}
	return "", false
}
