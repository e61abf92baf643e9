package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type OutboxRepository struct {
	store *Store
}

func cloneEvent(e *model.OutboxEvent) *model.OutboxEvent {
	c := *e
	c.Payload = append([]byte(nil), e.Payload...)
	return &c
}

func (r *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil || event.Payload == nil {
		return errors.New("outbox event payload is required")
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Status = model.OutboxStatusPending
	event.CreatedAt = now
	event.NextAttemptAt = now
	s.outbox[event.ID] = cloneEvent(event)
	return nil
}

func (r *OutboxRepository) ClaimPending(ctx context.Context, now, leaseUntil time.Time, limit int) ([]*model.OutboxEvent, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*model.OutboxEvent
	for _, e := range s.outbox {
		if e.Status == model.OutboxStatusPending && !e.NextAttemptAt.After(now) {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*model.OutboxEvent, 0, len(due))
	for _, e := range due {
		e.Attempts++
		e.NextAttemptAt = leaseUntil
		claimed = append(claimed, cloneEvent(e))
	}
	return claimed, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.outbox[id]
	if !ok {
		return apperrors.NotFound("Event")
	}
	e.Status = model.OutboxStatusPublished
	e.PublishedAt = &at
	e.LastError = nil
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, retryAt *time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.outbox[id]
	if !ok {
		return apperrors.NotFound("Event")
	}
	e.LastError = &reason
	if retryAt == nil {
		e.Status = model.OutboxStatusFailed
		return nil
	}
	e.NextAttemptAt = *retryAt
	return nil
}

func (r *OutboxRepository) DeletePublishedBefore(ctx context.Context, before time.Time) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, e := range s.outbox {
		if e.Status == model.OutboxStatusPublished && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			delete(s.outbox, id)
			n++
		}
	}
	return n, nil
}

// Events returns a snapshot of every stored event, oldest first.
func (r *OutboxRepository) Events() []*model.OutboxEvent {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*model.OutboxEvent, 0, len(s.outbox))
	for _, e := range s.outbox {
		events = append(events, cloneEvent(e))
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events
}
