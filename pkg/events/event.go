package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is what aggregates emit and the outbox and Kafka
// publisher consume. Payload carries the serialized body so transports
// never re-marshal aggregate internals.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	AggregateType() string
	OccurredAt() time.Time
	Payload() []byte
}

// BaseEvent implements DomainEvent; concrete events embed it and add
// their own exported fields.
type BaseEvent struct {
	id            uuid.UUID
	eventType     string
	aggregateID   uuid.UUID
	aggregateType string
	occurredAt    time.Time
	payload       []byte
}

// NewBaseEvent stamps the event with a fresh ID and the current UTC time.
func NewBaseEvent(eventType string, aggregateID uuid.UUID, aggregateType string, payload []byte) BaseEvent {
	return BaseEvent{
		id:            uuid.New(),
		eventType:     eventType,
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		occurredAt:    time.Now().UTC(),
		payload:       payload,
	}
}

func (e BaseEvent) EventID() uuid.UUID { return e.id }

func (e BaseEvent) EventType() string { return e.eventType }

func (e BaseEvent) AggregateID() uuid.UUID { return e.aggregateID }

func (e BaseEvent) AggregateType() string { return e.aggregateType }

func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }

func (e BaseEvent) Payload() []byte { return e.payload }
