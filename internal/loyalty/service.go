package loyalty

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/richxcame/ride-loyalty/pkg/logger"
)

const lockStripes = 64

// riderLocks serializes writes per rider id. Striping keeps the lock table
// bounded; two riders sharing a stripe only cost contention, never
// correctness.
type riderLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *riderLocks) forRider(riderID primitive.ObjectID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(riderID[:])
	return &l.stripes[h.Sum32()%lockStripes]
}

// Service orchestrates the loyalty state engine over the document store.
// Ride-completion processing holds a per-rider lock so at most one writer
// updates a rider at a time; the store-level $inc is the second line of
// defense against lost updates.
type Service struct {
	repo     RepositoryInterface
	cache    CacheInterface
	cacheTTL time.Duration
	locks    riderLocks
}

// NewService creates the loyalty service. cache may be nil to disable the
// rider read cache.
func NewService(repo RepositoryInterface, cache CacheInterface, cacheTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// RegisterRider creates the loyalty account for a newly signed-up rider.
// The account starts at bronze with zero points. A rider id seen before is
// rejected with ErrRiderAlreadyExists and no mutation.
func (s *Service) RegisterRider(ctx context.Context, riderID primitive.ObjectID, name string) (*Rider, error) {
	rider := &Rider{
		ID:            riderID,
		Name:          name,
		Status:        StatusBronze,
		LoyaltyPoints: 0,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.CreateRider(ctx, rider); err != nil {
		return nil, err
	}

	logger.Info("loyalty: rider registered",
		zap.String("rider_id", riderID.Hex()),
		zap.String("name", name),
	)
	return rider, nil
}

// CompleteRide records a completed ride and advances the owning rider's
// loyalty state. The tier is recomputed from the ride count including the
// ride being processed; the points accrual is keyed on the status stored
// before this ride was applied. Both derivations are persisted in one
// update. A duplicate ride id is rejected before any mutation.
func (s *Service) CompleteRide(ctx context.Context, rideID, riderID primitive.ObjectID, amount float64) (*Ride, error) {
	mu := s.locks.forRider(riderID)
	mu.Lock()
	defer mu.Unlock()

	rider, err := s.repo.GetRider(ctx, riderID)
	if err != nil {
		if errors.Is(err, ErrRiderNotFound) {
			return nil, ErrUnknownRider
		}
		return nil, fmt.Errorf("load rider %s: %w", riderID.Hex(), err)
	}

	ride := &Ride{
		ID:        rideID,
		RiderID:   riderID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateRide(ctx, ride); err != nil {
		return nil, err
	}

	rideCount, err := s.repo.CountRides(ctx, riderID)
	if err != nil {
		return nil, fmt.Errorf("count rides for %s: %w", riderID.Hex(), err)
	}

	newStatus := ComputeTier(rideCount)
	pointsDelta := PointsEarned(rider.Status, amount)

	if err := s.repo.ApplyRideOutcome(ctx, riderID, newStatus, pointsDelta); err != nil {
		return nil, fmt.Errorf("apply ride outcome for %s: %w", riderID.Hex(), err)
	}

	if s.cache != nil {
		s.cache.InvalidateRider(ctx, riderID)
	}

	logger.Info("loyalty: ride applied",
		zap.String("ride_id", rideID.Hex()),
		zap.String("rider_id", riderID.Hex()),
		zap.Float64("amount", amount),
		zap.Int64("ride_count", rideCount),
		zap.String("status", string(newStatus)),
		zap.Float64("points_earned", pointsDelta),
	)
	return ride, nil
}

// GetLoyaltyInfo returns a rider's tier and point balance
func (s *Service) GetLoyaltyInfo(ctx context.Context, riderID primitive.ObjectID) (*LoyaltyInfo, error) {
	rider, err := s.loadRider(ctx, riderID)
	if err != nil {
		return nil, err
	}

	return &LoyaltyInfo{
		ID:            rider.ID,
		Name:          rider.Name,
		Status:        rider.Status,
		LoyaltyPoints: rider.LoyaltyPoints,
	}, nil
}

// GetRideCount returns how many rides a rider has completed. An unknown
// rider is ErrRiderNotFound; a known rider with no rides yields zero.
func (s *Service) GetRideCount(ctx context.Context, riderID primitive.ObjectID) (int64, error) {
	if _, err := s.loadRider(ctx, riderID); err != nil {
		return 0, err
	}
	return s.repo.CountRides(ctx, riderID)
}

func (s *Service) loadRider(ctx context.Context, riderID primitive.ObjectID) (*Rider, error) {
	if s.cache != nil {
		if rider, ok := s.cache.GetRider(ctx, riderID); ok {
			return rider, nil
		}
	}

	rider, err := s.repo.GetRider(ctx, riderID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetRider(ctx, rider, s.cacheTTL)
	}
	return rider, nil
}
