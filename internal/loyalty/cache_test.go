package loyalty

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	pkgredis "github.com/richxcame/ride-loyalty/pkg/redis"
)

func newCacheWithMock(t *testing.T) (*RiderCache, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	return NewRiderCache(&pkgredis.Client{Client: db}), mock
}

func TestRiderCache_Hit(t *testing.T) {
	cache, mock := newCacheWithMock(t)

	riderID := primitive.NewObjectID()
	rider := &Rider{
		ID:            riderID,
		Name:          "Cached Rider",
		Status:        StatusGold,
		LoyaltyPoints: 500,
	}
	raw, err := json.Marshal(rider)
	require.NoError(t, err)

	mock.ExpectGet("rider:" + riderID.Hex()).SetVal(string(raw))

	got, ok := cache.GetRider(context.Background(), riderID)

	require.True(t, ok)
	assert.Equal(t, rider.Name, got.Name)
	assert.Equal(t, rider.Status, got.Status)
	assert.Equal(t, rider.LoyaltyPoints, got.LoyaltyPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRiderCache_MissOnAbsentKey(t *testing.T) {
	cache, mock := newCacheWithMock(t)

	riderID := primitive.NewObjectID()
	mock.ExpectGet("rider:" + riderID.Hex()).RedisNil()

	_, ok := cache.GetRider(context.Background(), riderID)

	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRiderCache_CorruptEntryIsDroppedAndInvalidated(t *testing.T) {
	cache, mock := newCacheWithMock(t)

	riderID := primitive.NewObjectID()
	key := "rider:" + riderID.Hex()
	mock.ExpectGet(key).SetVal("{not json")
	mock.ExpectDel(key).SetVal(1)

	_, ok := cache.GetRider(context.Background(), riderID)

	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRiderCache_Set(t *testing.T) {
	cache, mock := newCacheWithMock(t)

	riderID := primitive.NewObjectID()
	rider := &Rider{ID: riderID, Name: "Fresh Rider", Status: StatusBronze}
	raw, err := json.Marshal(rider)
	require.NoError(t, err)

	mock.ExpectSet("rider:"+riderID.Hex(), raw, time.Minute).SetVal("OK")

	cache.SetRider(context.Background(), rider, time.Minute)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRiderCache_Invalidate(t *testing.T) {
	cache, mock := newCacheWithMock(t)

	riderID := primitive.NewObjectID()
	mock.ExpectDel("rider:" + riderID.Hex()).SetVal(1)

	cache.InvalidateRider(context.Background(), riderID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
