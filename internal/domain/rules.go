package domain

import "math"

// Surcharge fractions applied to a quoted total before it becomes the
// booking's authoritative total cost.
const (
	HighRiseFeeRate  = 0.03
	OutOfTownFeeRate = 0.20
)

// StaffFor sizes the service crew: base 3 staff covers the first 50
// pax, then one more for every additional 25.
func StaffFor(pax int) int {
	if pax <= 50 {
		return 3
	}
	return 3 + int(math.Ceil(float64(pax-50)/25))
}

// QuoteWithFees applies venue surcharges to a base quote, rounded to
// the cent.
func QuoteWithFees(baseCents int64, highRise, outOfTown bool) int64 {
	rate := 1.0
	if highRise {
		rate += HighRiseFeeRate
	}
	if outOfTown {
		rate += OutOfTownFeeRate
	}
	return int64(math.Round(float64(baseCents) * rate))
}
