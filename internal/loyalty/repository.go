package loyalty

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/richxcame/ride-loyalty/pkg/database"
)

const (
	ridersCollection = "riders"
	ridesCollection  = "rides"
)

// Repository persists riders and rides in the document store
type Repository struct {
	riders *mongo.Collection
	rides  *mongo.Collection
}

// NewRepository creates a repository over the riders and rides collections
func NewRepository(db *database.MongoDB) *Repository {
	return &Repository{
		riders: db.Collection(ridersCollection),
		rides:  db.Collection(ridesCollection),
	}
}

// EnsureIndexes creates the secondary indexes the read paths rely on. The
// _id primary index already enforces ride/rider uniqueness.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.riders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create riders status index: %w", err)
	}

	_, err = r.rides.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "rider_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create rides rider_id index: %w", err)
	}
	return nil
}

// CreateRider inserts a new rider. A second insert with the same id fails
// with ErrRiderAlreadyExists and leaves no side effect.
func (r *Repository) CreateRider(ctx context.Context, rider *Rider) error {
	_, err := r.riders.InsertOne(ctx, rider)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrRiderAlreadyExists
		}
		return fmt.Errorf("insert rider: %w", err)
	}
	return nil
}

// GetRider loads a rider by id
func (r *Repository) GetRider(ctx context.Context, riderID primitive.ObjectID) (*Rider, error) {
	var rider Rider
	err := r.riders.FindOne(ctx, bson.M{"_id": riderID}).Decode(&rider)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrRiderNotFound
		}
		return nil, fmt.Errorf("get rider: %w", err)
	}
	return &rider, nil
}

// ApplyRideOutcome writes a ride-completion result in a single update. The
// points accrual is a relative $inc so concurrent updates cannot lose each
// other's increments.
func (r *Repository) ApplyRideOutcome(ctx context.Context, riderID primitive.ObjectID, status Status, pointsDelta float64) error {
	res, err := r.riders.UpdateOne(ctx,
		bson.M{"_id": riderID},
		bson.M{
			"$set": bson.M{"status": status},
			"$inc": bson.M{"loyalty_points": pointsDelta},
		},
	)
	if err != nil {
		return fmt.Errorf("update rider loyalty: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrRiderNotFound
	}
	return nil
}

// CreateRide inserts a new ride. The ride id is the idempotency key: a
// duplicate insert fails with ErrRideAlreadyExists and no side effect.
func (r *Repository) CreateRide(ctx context.Context, ride *Ride) error {
	_, err := r.rides.InsertOne(ctx, ride)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrRideAlreadyExists
		}
		return fmt.Errorf("insert ride: %w", err)
	}
	return nil
}

// CountRides returns the number of rides stored for a rider
func (r *Repository) CountRides(ctx context.Context, riderID primitive.ObjectID) (int64, error) {
	count, err := r.rides.CountDocuments(ctx, bson.M{"rider_id": riderID})
	if err != nil {
		return 0, fmt.Errorf("count rides: %w", err)
	}
	return count, nil
}
