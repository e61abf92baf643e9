package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds a zerolog logger writing JSON to w, or console output when pretty.
func New(w io.Writer, level string, pretty bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "clinic-api").
		Logger(), nil
}

// Setup replaces the global logger used through github.com/rs/zerolog/log.
func Setup(level string, pretty bool) error {
	l, err := New(os.Stdout, level, pretty)
	if err != nil {
		return err
	}
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = l
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}

type ctxKey struct{}

// WithRequestID stores id on ctx and attaches a child logger carrying it.
func WithRequestID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, ctxKey{}, id)
	l := log.Ctx(ctx).With().Str("request_id", id).Logger()
	return l.WithContext(ctx)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// FromContext returns the request logger, or the global one.
func FromContext(ctx context.Context) *zerolog.Logger {
	return log.Ctx(ctx)
}
