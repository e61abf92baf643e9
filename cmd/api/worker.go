package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/worker"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	redisPublisher "github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

func newWorkerCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Relay outbox events without serving HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("the worker requires the %s driver, got %q", config.DriverPostgres, cfg.Database.Driver)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := postgres.NewDB(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			var client *redis.Client
			if cfg.Redis.Addr != "" {
				client, err = auth.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
				if err != nil {
					return err
				}
				defer client.Close()
			}

			wait, err := startEventWorkers(ctx, cfg.Events, postgres.NewRepositories(db).Outbox, newPublisher(cfg.Events, client), nil)
			if err != nil {
				return err
			}
			<-ctx.Done()
			wait()
			log.Info().Msg("worker exited properly")
			return nil
		},
	}
}

// newPublisher publishes to Redis when a client is available and to the
// process log otherwise.
func newPublisher(cfg config.EventsConfig, client *redis.Client) messaging.Publisher {
	if client == nil {
		log.Warn().Msg("redis not configured, events are written to the log")
		return messaging.NewLogPublisher(log.Logger)
	}
	return redisPublisher.NewPublisher(client, redisPublisher.Config{ChannelPrefix: cfg.ChannelPrefix})
}

// startEventWorkers runs the relay and the cleanup job until ctx is done. The
// returned func blocks until both have stopped.
func startEventWorkers(
	ctx context.Context,
	cfg config.EventsConfig,
	outbox repository.OutboxRepository,
	publisher messaging.Publisher,
	m *metrics.Metrics,
) (func(), error) {
	relay, err := worker.NewRelay(outbox, publisher, worker.RelayConfig{
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.PollInterval,
		MaxAttempts:  cfg.MaxAttempts,
		RetryDelay:   cfg.RetryDelay,
		Lease:        cfg.Lease,
	}, m)
	if err != nil {
		return nil, err
	}
	cleanup := worker.NewCleanup(outbox, cfg.Retention, cfg.CleanupInterval)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		relay.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Run(ctx)
	}()
	return wg.Wait, nil
}
