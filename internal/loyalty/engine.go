package loyalty

// Ride-count thresholds at which a rider moves up a tier.
const (
	silverThreshold   = 20
	goldThreshold     = 50
	platinumThreshold = 100
)

// ComputeTier maps a completed-ride count onto a loyalty tier. It is pure
// and monotone: a growing ride count never regresses the tier.
func ComputeTier(rideCount int64) Status {
	switch {
	case rideCount >= platinumThreshold:
		return StatusPlatinum
	case rideCount >= goldThreshold:
		return StatusGold
	case rideCount >= silverThreshold:
		return StatusSilver
	default:
		return StatusBronze
	}
}

// Multiplier returns the points-per-fare-unit factor for a tier
func Multiplier(status Status) float64 {
	switch status {
	case StatusPlatinum:
		return 10
	case StatusGold:
		return 5
	case StatusSilver:
		return 3
	default:
		return 1
	}
}

// PointsEarned is the accrual for one ride: the fare weighted by the tier
// multiplier. The tier is the one stored before the ride is applied.
func PointsEarned(status Status, fareAmount float64) float64 {
	return Multiplier(status) * fareAmount
}

// AccrueLoyaltyPoints adds the status-weighted fare to the current balance.
// For non-negative fares the result never falls below the current balance.
func AccrueLoyaltyPoints(status Status, currentBalance, fareAmount float64) float64 {
	return currentBalance + PointsEarned(status, fareAmount)
}
