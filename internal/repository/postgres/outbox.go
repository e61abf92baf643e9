package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type outboxRepository struct {
	BaseRepository
}

const outboxColumns = `id, topic, aggregate_id, actor_id, payload, status, attempts,
	last_error, next_attempt_at, created_at, published_at`

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil || event.Payload == nil {
		return errors.New("outbox event payload is required")
	}

	now := time.Now().UTC()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Status = model.OutboxStatusPending
	event.CreatedAt = now
	event.NextAttemptAt = now

	query := `
		INSERT INTO outbox_events (
			id, topic, aggregate_id, actor_id, payload, status, attempts,
			next_attempt_at, created_at
		) VALUES ($1, $2, $3, $4, $5::jsonb, $6, 0, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Topic,
		event.AggregateID,
		event.ActorID,
		string(event.Payload),
		event.Status,
		event.NextAttemptAt,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// ClaimPending bumps the attempt counter and pushes next_attempt_at to the
// lease in the same statement, so concurrent relays never share an event.
func (r *outboxRepository) ClaimPending(ctx context.Context, now, leaseUntil time.Time, limit int) ([]*model.OutboxEvent, error) {
	query := `
		UPDATE outbox_events
		SET attempts = attempts + 1, next_attempt_at = $2
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = 'pending' AND next_attempt_at <= $1
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + outboxColumns

	var events []*model.OutboxEvent
	if err := r.db.SelectContext(ctx, &events, query, now, leaseUntil, limit); err != nil {
		return nil, fmt.Errorf("failed to claim outbox events: %w", err)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = 'published', published_at = $2, last_error = NULL
		WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event published: %w", err)
	}
	return expectAffected(result, "Event")
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, retryAt *time.Time) error {
	query := `
		UPDATE outbox_events
		SET status = 'failed', last_error = $2
		WHERE id = $1
	`
	args := []interface{}{id, reason}
	if retryAt != nil {
		query = `
			UPDATE outbox_events
			SET last_error = $2, next_attempt_at = $3
			WHERE id = $1
		`
		args = append(args, *retryAt)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event failed: %w", err)
	}
	return expectAffected(result, "Event")
}

func (r *outboxRepository) DeletePublishedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM outbox_events
		WHERE status = 'published' AND published_at < $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete published events: %w", err)
	}
	return result.RowsAffected()
}
