package domain

import "math"

// Fixed trip pricing schedule.
const (
	StandardBaseFare     = 110.00
	StandardTaxesAndFees = 10.00
)

// ComputeFare returns the amount a single passenger pays for a seat on trip.
// Pooling seats are half the total fare, rounded half-up to a whole unit.
func ComputeFare(trip *Trip) float64 {
	if trip.RideType == RideTypePooling {
		return PoolFare(trip.TotalFare)
	}
	return trip.TotalFare
}

// PoolFare splits totalFare in half, rounding half-up.
func PoolFare(totalFare float64) float64 {
	return math.Floor(totalFare/2 + 0.5)
}
