package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Subjects carried on the loyalty stream.
const (
	SubjectRiderSignup   = "rider.signup"
	SubjectRideCompleted = "ride.completed"
)

// Event is the envelope every message on the bus is wrapped in
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps a payload into an envelope with a fresh event id
func NewEvent(eventType, source string, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// RiderSignupData is the payload of a rider.signup event
type RiderSignupData struct {
	ID   string `json:"id" validate:"required,len=24,hexadecimal"`
	Name string `json:"name" validate:"required,min=6"`
}

// RideCompletedData is the payload of a ride.completed event. Amount is a
// pointer so a payload missing the key fails validation instead of reading
// as a zero fare.
type RideCompletedData struct {
	ID      string   `json:"id" validate:"required,len=24,hexadecimal"`
	Amount  *float64 `json:"amount" validate:"required,gte=0"`
	RiderID string   `json:"rider_id" validate:"required,len=24,hexadecimal"`
}
