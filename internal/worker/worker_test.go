package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.messages == nil {
		p.messages = make(map[string][][]byte)
	}
	p.messages[topic] = append(p.messages[topic], payload)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var testRelayConfig = RelayConfig{
	BatchSize:    10,
	PollInterval: time.Second,
	MaxAttempts:  2,
	RetryDelay:   time.Minute,
	Lease:        30 * time.Second,
}

type relayFixture struct {
	store     *memory.Store
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	relay     *Relay
	clock     time.Time
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	f := &relayFixture{
		store:     memory.NewStore(),
		publisher: &recordingPublisher{},
		metrics:   metrics.New("test", prometheus.NewRegistry()),
		clock:     time.Now().Add(time.Hour),
	}
	relay, err := NewRelay(f.store.Outbox(), f.publisher, testRelayConfig, f.metrics)
	require.NoError(t, err)
	relay.now = func() time.Time { return f.clock }
	f.relay = relay
	return f
}

func (f *relayFixture) emit(t *testing.T, topic, payload string) *model.OutboxEvent {
	t.Helper()
	e := &model.OutboxEvent{
		Topic:       topic,
		AggregateID: uuid.New(),
		ActorID:     uuid.New(),
		Payload:     json.RawMessage(payload),
	}
	require.NoError(t, f.store.Outbox().Create(context.Background(), e))
	return e
}

func TestNewRelayRejectsBadConfig(t *testing.T) {
	cfg := testRelayConfig
	cfg.BatchSize = 0
	_, err := NewRelay(memory.NewStore().Outbox(), &recordingPublisher{}, cfg, nil)
	assert.Error(t, err)
}

func TestRelayPublishesEnvelope(t *testing.T) {
	f := newRelayFixture(t)
	e := f.emit(t, "appointment.booked", `{"status":"scheduled"}`)

	n, err := f.relay.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, f.publisher.messages["appointment.booked"], 1)
	var env model.Envelope
	require.NoError(t, json.Unmarshal(f.publisher.messages["appointment.booked"][0], &env))
	assert.Equal(t, e.ID, env.ID)
	assert.Equal(t, e.AggregateID, env.AggregateID)
	assert.JSONEq(t, `{"status":"scheduled"}`, string(env.Payload))

	events := f.store.Outbox().Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.OutboxStatusPublished, events[0].Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventsRelayed.WithLabelValues("appointment.booked", metrics.RelayPublished)))

	n, err = f.relay.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "published events are not sent twice")
}

func TestRelayRetriesThenDrops(t *testing.T) {
	f := newRelayFixture(t)
	f.emit(t, "appointment.updated", `{}`)
	f.publisher.err = errors.New("broker unavailable")
	ctx := context.Background()

	n, err := f.relay.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	events := f.store.Outbox().Events()
	assert.Equal(t, model.OutboxStatusPending, events[0].Status)
	assert.Equal(t, f.clock.UTC().Add(time.Minute), events[0].NextAttemptAt)

	// Not due yet.
	n, err = f.relay.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, f.store.Outbox().Events()[0].Attempts)

	f.clock = f.clock.Add(2 * time.Minute)
	_, err = f.relay.ProcessBatch(ctx)
	require.NoError(t, err)

	events = f.store.Outbox().Events()
	assert.Equal(t, model.OutboxStatusFailed, events[0].Status)
	require.NotNil(t, events[0].LastError)
	assert.Equal(t, "broker unavailable", *events[0].LastError)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventsRelayed.WithLabelValues("appointment.updated", metrics.RelayRetried)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventsRelayed.WithLabelValues("appointment.updated", metrics.RelayDropped)))
}

func TestRelayDropsInvalidPayload(t *testing.T) {
	f := newRelayFixture(t)
	f.emit(t, "appointment.deleted", `{not json`)

	n, err := f.relay.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, model.OutboxStatusFailed, f.store.Outbox().Events()[0].Status)
	assert.Empty(t, f.publisher.messages)
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	f := newRelayFixture(t)
	f.emit(t, "appointment.booked", `{}`)

	cfg := testRelayConfig
	cfg.PollInterval = 5 * time.Millisecond
	relay, err := NewRelay(f.store.Outbox(), f.publisher, cfg, nil)
	require.NoError(t, err)
	relay.now = func() time.Time { return f.clock }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return f.store.Outbox().Events()[0].Status == model.OutboxStatusPublished
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestCleanup(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	outbox := store.Outbox()

	old := &model.OutboxEvent{Topic: "a", Payload: json.RawMessage(`{}`)}
	recent := &model.OutboxEvent{Topic: "b", Payload: json.RawMessage(`{}`)}
	pending := &model.OutboxEvent{Topic: "c", Payload: json.RawMessage(`{}`)}
	for _, e := range []*model.OutboxEvent{old, recent, pending} {
		require.NoError(t, outbox.Create(ctx, e))
	}

	now := time.Now()
	require.NoError(t, outbox.MarkPublished(ctx, old.ID, now.Add(-48*time.Hour)))
	require.NoError(t, outbox.MarkPublished(ctx, recent.ID, now.Add(-time.Hour)))

	w := NewCleanup(outbox, 24*time.Hour, time.Hour)
	w.now = func() time.Time { return now }

	n, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, outbox.Events(), 2)
}
