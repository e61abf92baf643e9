package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// OutboxEvent is a domain event waiting to be relayed to the message broker.
type OutboxEvent struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	Topic         string          `db:"topic" json:"topic"`
	AggregateID   uuid.UUID       `db:"aggregate_id" json:"aggregateId"`
	ActorID       uuid.UUID       `db:"actor_id" json:"actorId"`
	Payload       json.RawMessage `db:"payload" json:"payload"`
	Status        OutboxStatus    `db:"status" json:"status"`
	Attempts      int             `db:"attempts" json:"attempts"`
	LastError     *string         `db:"last_error" json:"lastError,omitempty"`
	NextAttemptAt time.Time       `db:"next_attempt_at" json:"nextAttemptAt"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	PublishedAt   *time.Time      `db:"published_at" json:"publishedAt,omitempty"`
}

// Envelope is the message body put on the broker.
type Envelope struct {
	ID          uuid.UUID       `json:"id"`
	Topic       string          `json:"topic"`
	AggregateID uuid.UUID       `json:"aggregateId"`
	ActorID     uuid.UUID       `json:"actorId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Payload     json.RawMessage `json:"payload"`
}

func (e *OutboxEvent) Envelope() Envelope {
	return Envelope{
		ID:          e.ID,
		Topic:       e.Topic,
		AggregateID: e.AggregateID,
		ActorID:     e.ActorID,
		OccurredAt:  e.CreatedAt,
		Payload:     e.Payload,
	}
}
