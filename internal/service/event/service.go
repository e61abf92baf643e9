// Package event appends domain events to the outbox for the relay worker.
package event

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Service records events. A nil *Service records nothing.
type Service struct {
	outbox repository.OutboxRepository
}

func NewService(outbox repository.OutboxRepository) *Service {
	return &Service{outbox: outbox}
}

// Emit stores an event after the change it describes has been committed. A
// failure is logged and does not undo the change.
func (s *Service) Emit(ctx context.Context, topic string, aggregateID, actor uuid.UUID, payload interface{}) {
	if s == nil || s.outbox == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("topic", topic).Msg("failed to encode event")
		return
	}

	event := &model.OutboxEvent{
		Topic:       topic,
		AggregateID: aggregateID,
		ActorID:     actor,
		Payload:     body,
	}
	if err := s.outbox.Create(ctx, event); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("topic", topic).
			Str("aggregate_id", aggregateID.String()).
			Msg("failed to store event")
	}
}
