package loyalty

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/richxcame/ride-loyalty/pkg/logger"
	"github.com/richxcame/ride-loyalty/pkg/redis"
)

// RiderCache caches rider documents in Redis in front of the store. Cache
// failures are logged and treated as misses, never surfaced to callers.
type RiderCache struct {
	client *redis.Client
}

// NewRiderCache creates a rider cache over the shared Redis client
func NewRiderCache(client *redis.Client) *RiderCache {
	return &RiderCache{client: client}
}

func riderCacheKey(riderID primitive.ObjectID) string {
	return fmt.Sprintf("rider:%s", riderID.Hex())
}

// GetRider returns the cached rider, if present
func (c *RiderCache) GetRider(ctx context.Context, riderID primitive.ObjectID) (*Rider, bool) {
	raw, err := c.client.GetString(ctx, riderCacheKey(riderID))
	if err != nil {
		return nil, false
	}

	var rider Rider
	if err := json.Unmarshal([]byte(raw), &rider); err != nil {
		logger.Warn("rider cache: discarding undecodable entry",
			zap.String("rider_id", riderID.Hex()),
			zap.Error(err),
		)
		c.InvalidateRider(ctx, riderID)
		return nil, false
	}
	return &rider, true
}

// SetRider stores a rider with the given TTL
func (c *RiderCache) SetRider(ctx context.Context, rider *Rider, ttl time.Duration) {
	raw, err := json.Marshal(rider)
	if err != nil {
		return
	}
	if err := c.client.SetWithExpiration(ctx, riderCacheKey(rider.ID), raw, ttl); err != nil {
		logger.Warn("rider cache: set failed",
			zap.String("rider_id", rider.ID.Hex()),
			zap.Error(err),
		)
	}
}

// InvalidateRider drops a rider from the cache after a write
func (c *RiderCache) InvalidateRider(ctx context.Context, riderID primitive.ObjectID) {
	if err := c.client.Delete(ctx, riderCacheKey(riderID)); err != nil {
		logger.Warn("rider cache: invalidate failed",
			zap.String("rider_id", riderID.Hex()),
			zap.Error(err),
		)
	}
}
