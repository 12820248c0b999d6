package loyalty

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RepositoryInterface defines the document-store operations the service needs
type RepositoryInterface interface {
	// Riders
	CreateRider(ctx context.Context, rider *Rider) error
	GetRider(ctx context.Context, riderID primitive.ObjectID) (*Rider, error)
	// ApplyRideOutcome persists a ride-completion result in one update:
	// the status is set and the points delta is added atomically.
	ApplyRideOutcome(ctx context.Context, riderID primitive.ObjectID, status Status, pointsDelta float64) error

	// Rides
	CreateRide(ctx context.Context, ride *Ride) error
	CountRides(ctx context.Context, riderID primitive.ObjectID) (int64, error)
}

// CacheInterface is the rider read cache in front of the document store
type CacheInterface interface {
	GetRider(ctx context.Context, riderID primitive.ObjectID) (*Rider, bool)
	SetRider(ctx context.Context, rider *Rider, ttl time.Duration)
	InvalidateRider(ctx context.Context, riderID primitive.ObjectID)
}
