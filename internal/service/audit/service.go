// Package audit writes the compliance trail for clinical mutations, access
// denials and sign-ins. It is separate from the request log.
package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jwalitptl/clinic-api/pkg/logger"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionLogin  = "login"
	ActionLogout = "logout"
)

const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeFailure = "failure"
)

// Service records audit events. A nil *Service records nothing.
type Service struct {
	log *zap.Logger
}

func NewService(log *zap.Logger) *Service {
	return &Service{log: log.Named("audit")}
}

// NewLogger builds a JSON zap logger writing to path ("stdout", "stderr" or a file).
func NewLogger(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build audit logger: %w", err)
	}
	return l, nil
}

func (s *Service) write(ctx context.Context, level zapcore.Level, action, outcome string, fields []zap.Field) {
	if s == nil {
		return
	}
	base := []zap.Field{
		zap.String("action", action),
		zap.String("outcome", outcome),
	}
	if id := logger.RequestID(ctx); id != "" {
		base = append(base, zap.String("request_id", id))
	}
	if ce := s.log.Check(level, "audit"); ce != nil {
		ce.Write(append(base, fields...)...)
	}
}

// Record logs a successful mutation of entity by actor.
func (s *Service) Record(ctx context.Context, action, entity string, entityID, actor uuid.UUID, fields ...zap.Field) {
	s.write(ctx, zapcore.InfoLevel, action, OutcomeSuccess, append([]zap.Field{
		zap.String("entity", entity),
		zap.Stringer("entity_id", entityID),
		zap.Stringer("actor_id", actor),
	}, fields...))
}

// Denied logs a refused mutation.
func (s *Service) Denied(ctx context.Context, action, entity string, entityID, actor uuid.UUID) {
	s.write(ctx, zapcore.WarnLevel, action, OutcomeDenied, []zap.Field{
		zap.String("entity", entity),
		zap.Stringer("entity_id", entityID),
		zap.Stringer("actor_id", actor),
	})
}

// Login logs a sign-in attempt. doctorID is uuid.Nil when the email is unknown.
func (s *Service) Login(ctx context.Context, email string, doctorID uuid.UUID, err error) {
	fields := []zap.Field{zap.String("email", email)}
	if doctorID != uuid.Nil {
		fields = append(fields, zap.Stringer("actor_id", doctorID))
	}
	if err != nil {
		s.write(ctx, zapcore.WarnLevel, ActionLogin, OutcomeFailure, append(fields, zap.String("reason", err.Error())))
		return
	}
	s.write(ctx, zapcore.InfoLevel, ActionLogin, OutcomeSuccess, fields)
}

func (s *Service) Sync() error {
	if s == nil {
		return nil
	}
	return s.log.Sync()
}
