package events

import (
	"context"
	"time"
)

const TypeIngestionCompleted = "INGESTION_COMPLETED"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "INGESTION_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher is implemented by every event bus the services publish to.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewIngestionCompleted summarizes one ingestion run. Counts are keyed by
// document state ("done", "skipped", "failed").
func NewIngestionCompleted(runID string, success bool, counts map[string]int, occurredAt time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeIngestionCompleted,
		Data: map[string]interface{}{
			"run_id":      runID,
			"success":     success,
			"counts":      counts,
			"occurred_at": occurredAt.UTC().Format(time.RFC3339),
		},
		OccurredAt: occurredAt,
	}
}
