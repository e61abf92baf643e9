package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-api/internal/app"
	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving (postgres only)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn().Err(err).Msg("failed to release resource")
			}
		}
	}()

	deps, err := storeDeps(ctx, cfg, migrate, &closers)
	if err != nil {
		return err
	}

	var client *redis.Client
	if cfg.Redis.Addr != "" {
		client, err = auth.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		closers = append(closers, client.Close)
		deps.Revoker = auth.NewRedisRevoker(client)
		deps.Checks["redis"] = repository.HealthCheckFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	} else {
		deps.Revoker = auth.NewMemoryRevoker(time.Minute)
		log.Warn().Msg("redis not configured, token revocation is local to this instance")
	}

	auditLog, err := audit.NewLogger(cfg.Log.AuditPath)
	if err != nil {
		return err
	}
	deps.AuditLog = auditLog
	closers = append(closers, func() error {
		// Sync on stdout returns EINVAL on some platforms.
		_ = auditLog.Sync()
		return nil
	})

	deps.Registry = prometheus.NewRegistry()
	deps.Metrics = metrics.New(app.MetricsNamespace, deps.Registry)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	if cfg.Events.Enabled && deps.Outbox != nil {
		wait, err := startEventWorkers(workerCtx, cfg.Events, deps.Outbox, newPublisher(cfg.Events, client), deps.Metrics)
		if err != nil {
			return err
		}
		// Runs before the closers release the database and redis.
		closers = append(closers, func() error {
			stopWorkers()
			wait()
			return nil
		})
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.NewEngine(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("driver", cfg.Database.Driver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exited properly")
	return nil
}

func storeDeps(ctx context.Context, cfg *config.Config, migrate bool, closers *[]func() error) (app.Deps, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn().Msg("using the in-memory store, data is lost on exit")
		return app.MemoryDeps(memory.NewStore()), nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return app.Deps{}, err
	}
	*closers = append(*closers, db.Close)

	if migrate {
		n, err := postgres.NewMigrator(db).Up(ctx)
		if err != nil {
			return app.Deps{}, err
		}
		log.Info().Int("applied", n).Msg("migrations applied")
	}

	repos := postgres.NewRepositories(db)
	return app.Deps{
		Doctors:        repos.Doctors,
		Patients:       repos.Patients,
		Appointments:   repos.Appointments,
		MedicalRecords: repos.MedicalRecords,
		Outbox:         repos.Outbox,
		Checks:         map[string]repository.HealthChecker{"store": repos},
	}, nil
}
