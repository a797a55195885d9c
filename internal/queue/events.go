package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types for the account stream
const (
	EventUserRegistered = "user_registered"
	EventProfileUpdated = "profile_updated"
)

// Stream names
const (
	StreamAccount = "stream:account"
)

// Consumer group name for audit workers
const (
	ConsumerGroupAudit = "audit_workers"
)

// AccountEvent represents an event published to the account stream.
// Events are emitted after the store mutation commits; they carry only
// identifiers, never credentials or field values.
type AccountEvent struct {
	Type      string    `json:"type"`
	Timestamp int64     `json:"timestamp"` // Unix timestamp when event occurred
	UserID    uuid.UUID `json:"user_id"`

	// Profile update events only: which allow-listed field changed.
	Field string `json:"field,omitempty"`
}

// NewUserRegisteredEvent creates an event for a completed registration.
func NewUserRegisteredEvent(userID uuid.UUID) AccountEvent {
	return AccountEvent{
		Type:      EventUserRegistered,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
	}
}

// NewProfileUpdatedEvent creates an event for a successful field update.
func NewProfileUpdatedEvent(userID uuid.UUID, field string) AccountEvent {
	return AccountEvent{
		Type:      EventProfileUpdated,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		Field:     field,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e AccountEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseAccountEvent parses an AccountEvent from Redis stream message values.
func ParseAccountEvent(values map[string]interface{}) (AccountEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return AccountEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event AccountEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return AccountEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
