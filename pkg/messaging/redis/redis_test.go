package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/pkg/circuitbreaker"
)

func setup(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestPublish(t *testing.T) {
	_, client := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p := NewPublisher(client, Config{})
	assert.Equal(t, "clinic.events.appointment.booked", p.Channel("appointment.booked"))

	sub := client.Subscribe(ctx, p.Channel("appointment.booked"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, "appointment.booked", []byte(`{"id":"1"}`)))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, msg.Payload)
	assert.NoError(t, p.Close())
}

func TestPublishOpensBreaker(t *testing.T) {
	mr, client := setup(t)
	ctx := context.Background()

	p := NewPublisher(client, Config{ChannelPrefix: "test.", MaxFailures: 2, OpenTimeout: time.Hour})
	mr.Close()

	assert.Error(t, p.Publish(ctx, "x", []byte(`{}`)))
	assert.Error(t, p.Publish(ctx, "x", []byte(`{}`)))
	assert.ErrorIs(t, p.Publish(ctx, "x", []byte(`{}`)), circuitbreaker.ErrOpen)
}
