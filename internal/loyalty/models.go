package loyalty

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is a rider's loyalty tier, derived from the cumulative ride count
type Status string

const (
	StatusBronze   Status = "bronze"
	StatusSilver   Status = "silver"
	StatusGold     Status = "gold"
	StatusPlatinum Status = "platinum"
)

// Valid reports whether s is one of the known tiers
func (s Status) Valid() bool {
	switch s {
	case StatusBronze, StatusSilver, StatusGold, StatusPlatinum:
		return true
	}
	return false
}

// Rider is the loyalty account document. The id is assigned by the upstream
// signup source; status and loyalty_points are derived fields, never set by
// clients directly.
type Rider struct {
	ID            primitive.ObjectID `bson:"_id" json:"_id"`
	Name          string             `bson:"name" json:"name"`
	Status        Status             `bson:"status" json:"status"`
	LoyaltyPoints float64            `bson:"loyalty_points" json:"loyalty_points"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// Ride is a completed-trip document. The id doubles as the idempotency key;
// rides are insert-only and never mutated.
type Ride struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	RiderID   primitive.ObjectID `bson:"rider_id" json:"rider_id"`
	Amount    float64            `bson:"amount" json:"amount"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// LoyaltyInfo is the read-API projection of a rider
type LoyaltyInfo struct {
	ID            primitive.ObjectID `json:"_id"`
	Name          string             `json:"name"`
	Status        Status             `json:"status"`
	LoyaltyPoints float64            `json:"loyalty_points"`
}

// RideCountInfo is the read-API shape for a rider's ride count
type RideCountInfo struct {
	NbrRide int64 `json:"nbr_ride"`
}
