package loyalty

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/richxcame/ride-loyalty/pkg/eventbus"
)

func makeEvent(t *testing.T, eventType string, data interface{}) *eventbus.Event {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return &eventbus.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "test",
		Timestamp: time.Now(),
		Data:      raw,
	}
}

func newHandlerWithMock(mockRepo *mockRepository) *EventHandler {
	return NewEventHandler(NewService(mockRepo, nil, 0))
}

func fare(v float64) *float64 {
	return &v
}

// ─── handleSignup ─────────────────────────────────────────────────────────────

func TestHandleSignup_Success(t *testing.T) {
	mockRepo := new(mockRepository)
	handler := newHandlerWithMock(mockRepo)

	riderID := primitive.NewObjectID()
	mockRepo.On("CreateRider", mock.Anything, mock.MatchedBy(func(r *Rider) bool {
		return r.ID == riderID && r.Name == "Test User" && r.Status == StatusBronze
	})).Return(nil)

	event := makeEvent(t, eventbus.SubjectRiderSignup, eventbus.RiderSignupData{
		ID:   riderID.Hex(),
		Name: "Test User",
	})

	err := handler.handleSignup(context.Background(), event)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestHandleSignup_NameTooShort_Permanent(t *testing.T) {
	mockRepo := new(mockRepository)
	handler := newHandlerWithMock(mockRepo)

	event := makeEvent(t, eventbus.SubjectRiderSignup, eventbus.RiderSignupData{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Bob",
	})

	err := handler.handleSignup(context.Background(), event)

	require.Error(t, err)
	assert.True(t, eventbus.IsPermanent(err))
	mockRepo.AssertNotCalled(t, "CreateRider")
}

func TestHandleSignup_MalformedID_Permanent(t *testing.T) {
	mockRepo := new(mockRepository)
	handler := newHandlerWithMock(mockRepo)

	event := makeEvent(t, eventbus.SubjectRiderSignup, map[string]interface{}{
		"id":   "not-a-hex-object-id-here",
		"name": "Test User",
	})

	err := handler.handleSignup(context.Background(), event)

	require.Error(t, err)
	assert.True(t, eventbus.IsPermanent(err))
	mockRepo.AssertNotCalled(t, "CreateRider")
}

func TestHandleSignup_UndecodablePayload_Permanent(t *testing.T) {
	mockRepo := new(mockRepository)
	handler := newHandlerWithMock(mockRepo)

	event := &eventbus.Event{
		ID:   uuid.New().String(),
		Type: eventbus.SubjectRiderSignup,
		Data: json.RawMessage(`{"id": 42`),
	}

	err := handler.handleSignup(context.Background(), event)

	require.Error(t, err)
	assert.True(t, eventbus.IsPermanent(err))
}

func TestHandleSignup_Duplicate_Permanent(t *testing.T) {
	mockRepo := new(mockRepository)
	handler := newHandlerWithMock(mockRepo)

	mockRepo.On("CreateRider", mock.Anything, mock.Anything).Return(ErrRiderAlreadyExists)

	event := makeEvent(t, eventbus.SubjectRiderSignup, eventbus.RiderSignupData{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Test User",
	})

	err := handler.handleSignup(context.Background(), event)

	require.Error(t, err)
	assert.True(t, eventbus.IsPermanent(err), "a duplicate signup can never succeed on retry")
}

// ─── handleRideCompleted ──────────────────────────────────────────────────────

func TestHandleRideCompleted_Success(t *testing.T) {
	mockRepo := new(mockRepository)
	handler := newHandlerWithMock(mockRepo)

	riderID := primitive.NewObjectID()
	rideID := primitive.NewObjectID()

	mockRepo.On("GetRider", mock.Anything, riderID).Return(&Rider{ID: riderID, Status: StatusBronze}, nil)
	mockRepo.On("CreateRide", mock.Anything, mock.MatchedBy(func(r *Ride) bool {
		return r.ID == rideID && r.RiderID == riderID && r.Amount == 12.5
	})).Return(nil)
	mockRepo.On("CountRides", mock.Anything, riderID).Return(int64(1), nil)
	mockRepo.On("ApplyRideOutcome", mock.Anything, riderID, StatusBronze, 12.5).Return(nil)

	event := makeEvent(t, eventbus.SubjectRideCompleted, eventbus.RideCompletedData{
		ID:      rideID.Hex(),
		Amount:  fare(12.5),
		RiderID: riderID.Hex(),
	})

	err := handler.handleRideCompleted(context.Background(), event)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestHandleRideCompleted_NegativeAmount_Permanent(t *testing.T) {
	mockRepo := new(mockRepository)
	handler := newHandlerWithMock(mockRepo)

	event := makeEvent(t, eventbus.SubjectRideCompleted, eventbus.RideCompletedData{
		ID:      primitive.NewObjectID().Hex(),
		Amount:  fare(-5),
		RiderID: primitive.NewObjectID().Hex(),
	})

	err := handler.handleRideCompleted(context.Background(), event)

	require.Error(t, err)
	assert.True(t, eventbus.IsPermanent(err))
	mockRepo.AssertNotCalled(t, "CreateRide")
}

func TestHandleRideCompleted_MissingAmount_Permanent(t *testing.T) {
	mockRepo := new(mockRepository)
	handler := newHandlerWithMock(mockRepo)

	// No amount key at all; must not be read as a zero-fare ride.
	event := makeEvent(t, eventbus.SubjectRideCompleted, map[string]interface{}{
		"id":       primitive.NewObjectID().Hex(),
		"rider_id": primitive.NewObjectID().Hex(),
	})

	err := handler.handleRideCompleted(context.Background(), event)

	require.Error(t, err)
	assert.True(t, eventbus.IsPermanent(err))
	mockRepo.AssertNotCalled(t, "CreateRide")
}

func TestHandleRideCompleted_MissingRiderID_Permanent(t *testing.T) {
	mockRepo := new(mockRepository)
	handler := newHandlerWithMock(mockRepo)

	event := makeEvent(t, eventbus.SubjectRideCompleted, map[string]interface{}{
		"id":     primitive.NewObjectID().Hex(),
		"amount": 10,
	})

	err := handler.handleRideCompleted(context.Background(), event)

	require.Error(t, err)
	assert.True(t, eventbus.IsPermanent(err))
}

func TestHandleRideCompleted_UnknownRider_Retryable(t *testing.T) {
	mockRepo := new(mockRepository)
	handler := newHandlerWithMock(mockRepo)

	riderID := primitive.NewObjectID()
	mockRepo.On("GetRider", mock.Anything, riderID).Return(nil, ErrRiderNotFound)

	event := makeEvent(t, eventbus.SubjectRideCompleted, eventbus.RideCompletedData{
		ID:      primitive.NewObjectID().Hex(),
		Amount:  fare(10),
		RiderID: riderID.Hex(),
	})

	err := handler.handleRideCompleted(context.Background(), event)

	// The signup event may still be in flight; leave the message eligible
	// for its one redelivery.
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownRider)
	assert.False(t, eventbus.IsPermanent(err))
	mockRepo.AssertNotCalled(t, "CreateRide")
}

func TestHandleRideCompleted_DuplicateRide_Permanent(t *testing.T) {
	mockRepo := new(mockRepository)
	handler := newHandlerWithMock(mockRepo)

	riderID := primitive.NewObjectID()
	mockRepo.On("GetRider", mock.Anything, riderID).Return(&Rider{ID: riderID, Status: StatusBronze}, nil)
	mockRepo.On("CreateRide", mock.Anything, mock.Anything).Return(ErrRideAlreadyExists)

	event := makeEvent(t, eventbus.SubjectRideCompleted, eventbus.RideCompletedData{
		ID:      primitive.NewObjectID().Hex(),
		Amount:  fare(10),
		RiderID: riderID.Hex(),
	})

	err := handler.handleRideCompleted(context.Background(), event)

	require.Error(t, err)
	assert.True(t, eventbus.IsPermanent(err))
	mockRepo.AssertNotCalled(t, "ApplyRideOutcome")
}

func TestHandleRideCompleted_TransientStoreError_Retryable(t *testing.T) {
	mockRepo := new(mockRepository)
	handler := newHandlerWithMock(mockRepo)

	riderID := primitive.NewObjectID()
	mockRepo.On("GetRider", mock.Anything, riderID).Return(&Rider{ID: riderID, Status: StatusBronze}, nil)
	mockRepo.On("CreateRide", mock.Anything, mock.Anything).Return(assert.AnError)

	event := makeEvent(t, eventbus.SubjectRideCompleted, eventbus.RideCompletedData{
		ID:      primitive.NewObjectID().Hex(),
		Amount:  fare(10),
		RiderID: riderID.Hex(),
	})

	err := handler.handleRideCompleted(context.Background(), event)

	require.Error(t, err)
	assert.False(t, eventbus.IsPermanent(err))
}
