package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/clinic-api/pkg/circuitbreaker"
)

const DefaultChannelPrefix = "clinic.events."

type Config struct {
	ChannelPrefix string
	// Consecutive failures that open the breaker.
	MaxFailures uint32
	// How long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Publisher sends events over Redis pub/sub. The client is borrowed and is
// not closed by Close.
type Publisher struct {
	client *redis.Client
	prefix string
	cb     *circuitbreaker.CircuitBreaker
}

func NewPublisher(client *redis.Client, config Config) *Publisher {
	if config.ChannelPrefix == "" {
		config.ChannelPrefix = DefaultChannelPrefix
	}
	if config.MaxFailures == 0 {
		config.MaxFailures = 5
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = 30 * time.Second
	}

	return &Publisher{
		client: client,
		prefix: config.ChannelPrefix,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "redis-publisher",
			MaxFailures: config.MaxFailures,
			Timeout:     config.OpenTimeout,
		}),
	}
}

// Channel is the pub/sub channel that carries topic.
func (p *Publisher) Channel(topic string) string {
	return p.prefix + topic
}

func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	return p.cb.Execute(func() error {
		if err := p.client.Publish(ctx, p.Channel(topic), payload).Err(); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", topic, err)
		}
		return nil
	})
}

func (p *Publisher) Close() error {
	return nil
}
