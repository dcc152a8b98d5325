package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Activity event kinds.
const (
	KindUserSignedUp       = "user.signed_up"
	KindProfileUpdated     = "user.profile_updated"
	KindTransactionCreated = "transaction.created"
	KindTransactionUpdated = "transaction.updated"
	KindTransactionDeleted = "transaction.deleted"
	KindGoalCreated        = "goal.created"
	KindGoalUpdated        = "goal.updated"
	KindGoalDeleted        = "goal.deleted"
	KindGoalContributed    = "goal.contributed"
)

var ErrInvalidEvent = errors.New("invalid activity event")

// ActivityEvent announces a change to one of a user's records. It carries
// ids only; consumers fetch anything else they need.
type ActivityEvent struct {
	EventID    string    `json:"eventId"`
	Kind       string    `json:"kind"`
	UserID     int64     `json:"userId"`
	EntityID   int64     `json:"entityId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewActivityEvent stamps a fresh event id and the current time.
func NewActivityEvent(kind string, userID, entityID int64) ActivityEvent {
	return ActivityEvent{
		EventID:    uuid.NewString(),
		Kind:       kind,
		UserID:     userID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e ActivityEvent) Validate() error {
	if e.EventID == "" || e.Kind == "" || e.UserID <= 0 || e.OccurredAt.IsZero() {
		return ErrInvalidEvent
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e ActivityEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ActivityEventFromJSON decodes and validates an event.
func ActivityEventFromJSON(data []byte) (ActivityEvent, error) {
	var e ActivityEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ActivityEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return ActivityEvent{}, err
	}
	return e, nil
}
