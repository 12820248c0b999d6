package loyalty

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/richxcame/ride-loyalty/pkg/common"
	"github.com/richxcame/ride-loyalty/pkg/eventbus"
	"github.com/richxcame/ride-loyalty/pkg/logger"
	"github.com/richxcame/ride-loyalty/pkg/validation"
)

// EventHandler consumes signup and ride-completion events from the bus and
// feeds them to the loyalty service. It validates payload shape, classifies
// failures as permanent or retryable, and never retries internally.
type EventHandler struct {
	service *Service
}

// NewEventHandler creates an event handler backed by the loyalty service
func NewEventHandler(service *Service) *EventHandler {
	return &EventHandler{service: service}
}

// RegisterSubscriptions subscribes to the signup and ride-completion subjects
func (h *EventHandler) RegisterSubscriptions(ctx context.Context, bus *eventbus.Bus) error {
	if err := bus.Subscribe(ctx, eventbus.SubjectRiderSignup, "loyalty-signup", h.handleSignup); err != nil {
		return fmt.Errorf("subscribe to %s: %w", eventbus.SubjectRiderSignup, err)
	}
	if err := bus.Subscribe(ctx, eventbus.SubjectRideCompleted, "loyalty-ride-completed", h.handleRideCompleted); err != nil {
		return fmt.Errorf("subscribe to %s: %w", eventbus.SubjectRideCompleted, err)
	}
	logger.Info("loyalty: subscribed to signup and ride completion events")
	return nil
}

func (h *EventHandler) handleSignup(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.RiderSignupData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return eventbus.Permanent(common.WrapError(common.CodeValidation, "malformed rider.signup payload", err))
	}
	if err := validation.ValidateStruct(&data); err != nil {
		return eventbus.Permanent(common.WrapError(common.CodeValidation, "invalid rider.signup payload", err))
	}

	riderID, err := primitive.ObjectIDFromHex(data.ID)
	if err != nil {
		return eventbus.Permanent(common.WrapError(common.CodeValidation, "invalid rider id", err))
	}

	logger.WithContext(ctx).Info("loyalty: received rider signup event",
		zap.String("rider_id", data.ID),
		zap.String("name", data.Name),
	)

	if _, err := h.service.RegisterRider(ctx, riderID, data.Name); err != nil {
		return classify(err)
	}
	return nil
}

func (h *EventHandler) handleRideCompleted(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.RideCompletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return eventbus.Permanent(common.WrapError(common.CodeValidation, "malformed ride.completed payload", err))
	}
	if err := validation.ValidateStruct(&data); err != nil {
		return eventbus.Permanent(common.WrapError(common.CodeValidation, "invalid ride.completed payload", err))
	}

	rideID, err := primitive.ObjectIDFromHex(data.ID)
	if err != nil {
		return eventbus.Permanent(common.WrapError(common.CodeValidation, "invalid ride id", err))
	}
	riderID, err := primitive.ObjectIDFromHex(data.RiderID)
	if err != nil {
		return eventbus.Permanent(common.WrapError(common.CodeValidation, "invalid rider id", err))
	}
	amount := *data.Amount

	logger.WithContext(ctx).Info("loyalty: received ride completed event",
		zap.String("ride_id", data.ID),
		zap.String("rider_id", data.RiderID),
		zap.Float64("amount", amount),
	)

	if _, err := h.service.CompleteRide(ctx, rideID, riderID, amount); err != nil {
		return classify(err)
	}
	return nil
}

// classify marks validation and duplicate-key failures as permanent so the
// bus terminates the message. Everything else, including the referential
// unknown-rider case, stays retryable for the single redelivery the bus
// allows.
func classify(err error) error {
	switch common.CodeOf(err) {
	case common.CodeValidation, common.CodeDuplicate:
		return eventbus.Permanent(err)
	}
	return err
}
