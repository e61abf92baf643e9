package messaging

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPublisher writes events to a logger instead of a broker. It stands in
// when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	p.logger.Info().Str("topic", topic).RawJSON("event", payload).Msg("event published")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
