// Package worker runs the background jobs that move outbox events to the
// broker and prune what has been delivered.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type RelayConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// MaxAttempts publishes per event before it is marked failed.
	MaxAttempts int
	// RetryDelay is multiplied by the attempt number.
	RetryDelay time.Duration
	// Lease hides a claimed event from other relays while it is published.
	Lease time.Duration
}

func (c RelayConfig) validate() error {
	switch {
	case c.BatchSize <= 0:
		return errors.New("relay batch size must be greater than 0")
	case c.PollInterval <= 0:
		return errors.New("relay poll interval must be greater than 0")
	case c.MaxAttempts <= 0:
		return errors.New("relay max attempts must be greater than 0")
	case c.RetryDelay <= 0:
		return errors.New("relay retry delay must be greater than 0")
	case c.Lease <= 0:
		return errors.New("relay lease must be greater than 0")
	}
	return nil
}

// Relay publishes pending outbox events. Delivery is at least once: an event
// whose status update fails is published again after its lease expires.
type Relay struct {
	repo      repository.OutboxRepository
	publisher messaging.Publisher
	config    RelayConfig
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewRelay(
	repo repository.OutboxRepository,
	publisher messaging.Publisher,
	config RelayConfig,
	m *metrics.Metrics,
) (*Relay, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Relay{
		repo:      repo,
		publisher: publisher,
		config:    config,
		metrics:   m,
		now:       time.Now,
	}, nil
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	logger := log.With().Str("worker", "relay").Logger()
	logger.Info().Dur("interval", r.config.PollInterval).Msg("starting outbox relay")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down outbox relay")
			return
		case <-ticker.C:
			n, err := r.ProcessBatch(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("failed to process outbox batch")
				continue
			}
			if n > 0 {
				logger.Debug().Int("published", n).Msg("outbox batch processed")
			}
		}
	}
}

// ProcessBatch claims one batch and returns how many events were published.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	now := r.now().UTC()
	events, err := r.repo.ClaimPending(ctx, now, now.Add(r.config.Lease), r.config.BatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, e := range events {
		if err := r.publish(ctx, e); err != nil {
			log.Warn().
				Err(err).
				Str("event_id", e.ID.String()).
				Str("topic", e.Topic).
				Int("attempt", e.Attempts).
				Msg("failed to publish event")
			continue
		}
		published++
	}
	return published, nil
}

func (r *Relay) publish(ctx context.Context, e *model.OutboxEvent) error {
	body, err := jsonEnvelope(e)
	if err != nil {
		return r.fail(ctx, e, err, false)
	}

	if err := r.publisher.Publish(ctx, e.Topic, body); err != nil {
		return r.fail(ctx, e, err, e.Attempts < r.config.MaxAttempts)
	}

	if err := r.repo.MarkPublished(ctx, e.ID, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to mark event published: %w", err)
	}
	r.metrics.Relayed(e.Topic, metrics.RelayPublished)
	return nil
}

// fail records cause and schedules another attempt when retry is set.
func (r *Relay) fail(ctx context.Context, e *model.OutboxEvent, cause error, retry bool) error {
	var retryAt *time.Time
	outcome := metrics.RelayDropped
	if retry {
		at := r.now().UTC().Add(time.Duration(e.Attempts) * r.config.RetryDelay)
		retryAt = &at
		outcome = metrics.RelayRetried
	}

	if err := r.repo.MarkFailed(ctx, e.ID, cause.Error(), retryAt); err != nil {
		log.Error().Err(err).Str("event_id", e.ID.String()).Msg("failed to record publish failure")
	}
	r.metrics.Relayed(e.Topic, outcome)
	return cause
}

func jsonEnvelope(e *model.OutboxEvent) ([]byte, error) {
	if !json.Valid(e.Payload) {
		return nil, fmt.Errorf("event %s has an invalid payload", e.ID)
	}
	return json.Marshal(e.Envelope())
}
