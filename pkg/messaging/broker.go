// Package messaging publishes domain events to a message broker.
package messaging

import (
	"context"
)

// Publisher delivers a payload to every subscriber of topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}
