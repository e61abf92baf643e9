package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the domain counters. A nil *Metrics is a no-op.
type Metrics struct {
	AppointmentsBooked   prometheus.Counter
	AppointmentConflicts *prometheus.CounterVec
	AppointmentStatus    *prometheus.CounterVec
	AccessDenied         *prometheus.CounterVec
	AuthAttempts         *prometheus.CounterVec
	EventsRelayed        *prometheus.CounterVec
}

// New registers the domain metrics on reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AppointmentsBooked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "booked_total",
			Help:      "Total number of appointments booked",
		}),
		AppointmentConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "conflicts_total",
			Help:      "Booking attempts rejected because the doctor was already booked",
		}, []string{"stage"}),
		AppointmentStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "status_changes_total",
			Help:      "Appointment status transitions",
		}, []string{"from", "to"}),
		AccessDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "medical_records",
			Name:      "access_denied_total",
			Help:      "Mutations refused because the caller did not author the record",
		}, []string{"action"}),
		AuthAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome",
		}, []string{"outcome"}),
		EventsRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "relayed_total",
			Help:      "Outbox events handled by the relay, by topic and outcome",
		}, []string{"topic", "outcome"}),
	}
}

// Stage labels for conflict counters.
const (
	StagePrecheck = "precheck"
	StageStorage  = "storage"
)

// Relay outcomes.
const (
	RelayPublished = "published"
	RelayRetried   = "retried"
	RelayDropped   = "dropped"
)

func (m *Metrics) Booked() {
	if m == nil {
		return
	}
	m.AppointmentsBooked.Inc()
}

func (m *Metrics) Conflict(stage string) {
	if m == nil {
		return
	}
	m.AppointmentConflicts.WithLabelValues(stage).Inc()
}

func (m *Metrics) StatusChanged(from, to string) {
	if m == nil {
		return
	}
	m.AppointmentStatus.WithLabelValues(from, to).Inc()
}

func (m *Metrics) Denied(action string) {
	if m == nil {
		return
	}
	m.AccessDenied.WithLabelValues(action).Inc()
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Relayed(topic, outcome string) {
	if m == nil {
		return
	}
	m.EventsRelayed.WithLabelValues(topic, outcome).Inc()
}
