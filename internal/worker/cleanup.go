package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Cleanup deletes published outbox events once they are older than the
// retention period. Failed events are kept for inspection.
type Cleanup struct {
	repo      repository.OutboxRepository
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewCleanup(repo repository.OutboxRepository, retention, interval time.Duration) *Cleanup {
	return &Cleanup{
		repo:      repo,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

func (w *Cleanup) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				log.Error().Err(err).Str("worker", "cleanup").Msg("failed to clean up outbox")
			}
		}
	}
}

func (w *Cleanup) RunOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().UTC().Add(-w.retention)

	rows, err := w.repo.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up outbox: %w", err)
	}
	if rows > 0 {
		log.Info().Int64("deleted", rows).Time("cutoff", cutoff).Msg("cleaned up published events")
	}
	return rows, nil
}
