// Package app assembles services, handlers and middleware into an HTTP engine.
package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/internal/config"
	appointmentHandler "github.com/jwalitptl/clinic-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	doctorHandler "github.com/jwalitptl/clinic-api/internal/handler/doctor"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	"github.com/jwalitptl/clinic-api/internal/handler/medicalrecord"
	patientHandler "github.com/jwalitptl/clinic-api/internal/handler/patient"
	promHandler "github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/router"
	appointmentService "github.com/jwalitptl/clinic-api/internal/service/appointment"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	authService "github.com/jwalitptl/clinic-api/internal/service/auth"
	doctorService "github.com/jwalitptl/clinic-api/internal/service/doctor"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	"github.com/jwalitptl/clinic-api/internal/service/medical"
	patientService "github.com/jwalitptl/clinic-api/internal/service/patient"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "clinic"

// Deps are the stateful dependencies chosen by the caller.
type Deps struct {
	Doctors        repository.DoctorRepository
	Patients       repository.PatientRepository
	Appointments   repository.AppointmentRepository
	MedicalRecords repository.MedicalRecordRepository
	// Outbox receives domain events. Nil disables them.
	Outbox repository.OutboxRepository
	// Checks are pinged by /api/health/ready.
	Checks map[string]repository.HealthChecker
	// Revoker defaults to an in-process store.
	Revoker  auth.Revoker
	AuditLog *zap.Logger
	// Registry defaults to a fresh registry.
	Registry *prometheus.Registry
	// Metrics must be registered on Registry. Built by NewEngine when nil.
	Metrics *metrics.Metrics
}

// MemoryDeps backs every repository with store.
func MemoryDeps(store *memory.Store) Deps {
	return Deps{
		Doctors:        store.Doctors(),
		Patients:       store.Patients(),
		Appointments:   store.Appointments(),
		MedicalRecords: store.MedicalRecords(),
		Outbox:         store.Outbox(),
		Checks:         map[string]repository.HealthChecker{"store": store},
	}
}

// NewEngine wires the API. It does not start listening.
func NewEngine(cfg *config.Config, d Deps) *gin.Engine {
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}
	if d.AuditLog == nil {
		d.AuditLog = zap.NewNop()
	}
	if d.Revoker == nil {
		d.Revoker = auth.NewMemoryRevoker(time.Minute)
	}

	if d.Metrics == nil {
		d.Metrics = metrics.New(MetricsNamespace, d.Registry)
	}

	m := d.Metrics
	auditor := audit.NewService(d.AuditLog)
	events := event.NewService(d.Outbox)
	validate := validator.New()
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry)

	authSvc := authService.NewService(d.Doctors, security.NewBcryptHasher(cfg.JWT.BcryptCost), tokens, d.Revoker, m, auditor)
	doctorSvc := doctorService.NewService(d.Doctors, auditor)
	patientSvc := patientService.NewService(d.Patients, auditor)
	appointmentSvc := appointmentService.NewService(d.Appointments, d.Patients, d.Doctors, m, auditor, events)
	medicalSvc := medical.NewService(d.MedicalRecords, d.Patients, d.Appointments, validate, m, auditor, events)

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		cors.AllowOrigins = cfg.CORS.AllowedOrigins
	}

	rc := router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSConfig:     cors,
	}
	if cfg.RateLimit.Enabled {
		rc.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		rc.RateBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(middleware.NewAuthMiddleware(authSvc), router.Handlers{
		Auth:          authHandler.NewHandler(authSvc, validate),
		Doctor:        doctorHandler.NewHandler(doctorSvc, validate),
		Patient:       patientHandler.NewHandler(patientSvc, validate),
		Appointment:   appointmentHandler.NewHandler(appointmentSvc, validate),
		MedicalRecord: medicalrecord.NewHandler(medicalSvc, validate),
		Health:        health.NewHandler(d.Checks),
		Metrics:       promHandler.New(MetricsNamespace, d.Registry),
	}, rc)

	return r.Setup()
}
