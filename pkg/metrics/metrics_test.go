package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("clinic", reg)

	m.Booked()
	m.Booked()
	m.Conflict(StagePrecheck)
	m.Conflict(StageStorage)
	m.Conflict(StageStorage)
	m.StatusChanged("scheduled", "cancelled")
	m.Denied("delete")
	m.Login("success")
	m.Relayed("appointment.booked", RelayPublished)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AppointmentsBooked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AppointmentConflicts.WithLabelValues(StagePrecheck)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AppointmentConflicts.WithLabelValues(StageStorage)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AppointmentStatus.WithLabelValues("scheduled", "cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccessDenied.WithLabelValues("delete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsRelayed.WithLabelValues("appointment.booked", RelayPublished)))

	count, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Booked()
		m.Conflict(StagePrecheck)
		m.StatusChanged("a", "b")
		m.Denied("update")
		m.Login("failure")
		m.Relayed("x", RelayDropped)
	})
}
