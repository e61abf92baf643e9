package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const auditEntity = "appointment"

type Service struct {
	repo     repository.AppointmentRepository
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	metrics  *metrics.Metrics
	auditor  *audit.Service
	events   *event.Service
}

func NewService(
	repo repository.AppointmentRepository,
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	m *metrics.Metrics,
	auditor *audit.Service,
	events *event.Service,
) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		doctors:  doctors,
		metrics:  m,
		auditor:  auditor,
		events:   events,
	}
}

// IsSlotAvailable reports whether the doctor is free for duration minutes from
// clock on date. excludeID skips the appointment being edited.
func (s *Service) IsSlotAvailable(ctx context.Context, doctorID uuid.UUID, date, clock string, duration int, excludeID *uuid.UUID) (bool, error) {
	requested, err := NewSlot(date, clock, duration)
	if err != nil {
		return false, err
	}
	conflict, err := s.findConflict(ctx, doctorID, requested, excludeID)
	if err != nil {
		return false, err
	}
	return conflict == nil, nil
}

func (s *Service) findConflict(ctx context.Context, doctorID uuid.UUID, requested Slot, excludeID *uuid.UUID) (*model.Appointment, error) {
	booked, err := s.repo.ListByDoctor(ctx, doctorID, requested.Date)
	if err != nil {
		return nil, err
	}
	return FindConflict(requested, booked, excludeID), nil
}

// ensureFree runs the in-process availability check ahead of the write.
func (s *Service) ensureFree(ctx context.Context, a *model.Appointment, excludeID *uuid.UUID) error {
	requested, err := slotOf(a)
	if err != nil {
		return err
	}
	conflict, err := s.findConflict(ctx, a.DoctorID, requested, excludeID)
	if err != nil {
		return err
	}
	if conflict != nil {
		s.metrics.Conflict(metrics.StagePrecheck)
		log.Ctx(ctx).Debug().
			Str("doctor_id", a.DoctorID.String()).
			Str("conflicts_with", conflict.ID.String()).
			Msg("slot already booked")
		return apperrors.SlotConflict(nil)
	}
	return nil
}

// persisted counts write-time slot violations that slipped past the precheck.
func (s *Service) persisted(err error) error {
	if apperrors.KindOf(err) == apperrors.KindSlotConflict {
		s.metrics.Conflict(metrics.StageStorage)
	}
	return err
}

func (s *Service) activeDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doctor.IsActive {
		return nil, apperrors.NotFound("Doctor")
	}
	return doctor, nil
}

func (s *Service) Create(ctx context.Context, actor uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	patientID, err := uuid.Parse(req.Patient)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid patient id")
	}
	doctorID, err := uuid.Parse(req.Doctor)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid doctor id")
	}

	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	if _, err := s.activeDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	status := model.AppointmentStatus(req.Status)
	if status == "" {
		status = model.AppointmentStatusScheduled
	}
	if status != model.AppointmentStatusScheduled {
		return nil, apperrors.InvalidInput("New appointments must be %s", model.AppointmentStatusScheduled)
	}

	duration := req.Duration
	if duration == 0 {
		duration = model.DefaultAppointmentDuration
	}
	clock, err := CanonicalTime(req.AppointmentTime)
	if err != nil {
		return nil, err
	}

	a := &model.Appointment{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: clock,
		Duration:        duration,
		Status:          status,
		Reason:          req.Reason,
		Notes:           req.Notes,
		CreatedBy:       actor,
	}

	if err := s.ensureFree(ctx, a, nil); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, s.persisted(err)
	}

	s.metrics.Booked()
	s.auditor.Record(ctx, audit.ActionCreate, auditEntity, a.ID, actor,
		zap.Stringer("doctor_id", a.DoctorID),
		zap.String("date", a.AppointmentDate),
		zap.String("time", a.AppointmentTime),
	)
	s.events.Emit(ctx, event.TopicAppointmentBooked, a.ID, actor, event.NewAppointmentPayload(a))
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, int, error) {
	return s.repo.List(ctx, filter)
}

// Update applies a partial edit. Moving the appointment in time re-runs the
// availability check with the appointment itself excluded; status changes
// follow the transition table and never re-check the slot.
func (s *Service) Update(ctx context.Context, actor, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := a.Status

	if req.Status != nil {
		if err := validateTransition(from, *req.Status); err != nil {
			return nil, err
		}
	}

	if req.Reschedules() {
		if IsTerminal(from) {
			return nil, apperrors.InvalidInput("Cannot reschedule a %s appointment", from)
		}
		if req.AppointmentDate != nil {
			a.AppointmentDate = *req.AppointmentDate
		}
		if req.AppointmentTime != nil {
			clock, err := CanonicalTime(*req.AppointmentTime)
			if err != nil {
				return nil, err
			}
			a.AppointmentTime = clock
		}
		if req.Duration != nil {
			a.Duration = *req.Duration
		}
	}
	if req.Reason != nil {
		a.Reason = *req.Reason
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}
	if req.Status != nil {
		a.Status = *req.Status
	}

	if req.Reschedules() && a.Status != model.AppointmentStatusCancelled {
		if err := s.ensureFree(ctx, a, &a.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, s.persisted(err)
	}

	if a.Status != from {
		s.metrics.StatusChanged(string(from), string(a.Status))
	}
	s.auditor.Record(ctx, audit.ActionUpdate, auditEntity, a.ID, actor,
		zap.String("from_status", string(from)),
		zap.String("to_status", string(a.Status)),
		zap.Bool("rescheduled", req.Reschedules()),
	)

	payload := event.NewAppointmentPayload(a)
	payload.Rescheduled = req.Reschedules()
	if a.Status != from {
		payload.PreviousStatus = from
	}
	s.events.Emit(ctx, event.TopicAppointmentUpdated, a.ID, actor, payload)
	return a, nil
}

func (s *Service) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.ActionDelete, auditEntity, id, actor)
	s.events.Emit(ctx, event.TopicAppointmentDeleted, id, actor, event.DeletedPayload{ID: id})
	return nil
}

// GetSchedule returns the doctor's appointments ordered by date and time,
// restricted to date when it is not empty.
func (s *Service) GetSchedule(ctx context.Context, doctorID uuid.UUID, date string) (*model.Schedule, error) {
	if date != "" {
		if _, err := time.Parse(model.DateLayout, date); err != nil {
			return nil, apperrors.InvalidInput("Invalid date %q, expected YYYY-MM-DD", date)
		}
	}

	doctor, err := s.activeDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	appointments, err := s.repo.ListByDoctor(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	SortSchedule(appointments)

	return &model.Schedule{
		Doctor:       doctor.Summary(),
		Appointments: appointments,
	}, nil
}
