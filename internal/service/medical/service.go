package medical

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const auditEntity = "medical_record"

const (
	msgUpdateDenied = "Not authorized to update this record"
	msgDeleteDenied = "Not authorized to delete this record"
)

// StructValidator checks request payloads.
type StructValidator interface {
	Struct(s interface{}) error
}

type Service struct {
	repo         repository.MedicalRecordRepository
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
	metrics      *metrics.Metrics
	auditor      *audit.Service
	events       *event.Service
	validate     StructValidator
	now          func() time.Time
}

func NewService(
	repo repository.MedicalRecordRepository,
	patients repository.PatientRepository,
	appointments repository.AppointmentRepository,
	validate StructValidator,
	m *metrics.Metrics,
	auditor *audit.Service,
	events *event.Service,
) *Service {
	return &Service{
		repo:         repo,
		patients:     patients,
		appointments: appointments,
		metrics:      m,
		auditor:      auditor,
		events:       events,
		validate:     validate,
		now:          time.Now,
	}
}

// Create records a visit authored by the calling doctor.
func (s *Service) Create(ctx context.Context, author uuid.UUID, req *model.CreateMedicalRecordRequest) (*model.MedicalRecord, error) {
	patientID, err := uuid.Parse(req.Patient)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid patient id")
	}
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}

	record := &model.MedicalRecord{
		PatientID:      patientID,
		DoctorID:       author,
		VisitDate:      s.now().UTC(),
		ChiefComplaint: req.ChiefComplaint,
		Diagnosis:      req.Diagnosis,
		Symptoms:       pq.StringArray(req.Symptoms),
		Prescriptions:  model.Prescriptions(req.Prescriptions),
		Notes:          req.Notes,
		FollowUpDate:   req.FollowUpDate,
	}
	if req.VisitDate != nil {
		record.VisitDate = req.VisitDate.UTC()
	}
	if req.VitalSigns != nil {
		record.VitalSigns = *req.VitalSigns
	}

	if req.Appointment != "" {
		appointmentID, err := uuid.Parse(req.Appointment)
		if err != nil {
			return nil, apperrors.InvalidInput("Invalid appointment id")
		}
		appointment, err := s.appointments.Get(ctx, appointmentID)
		if err != nil {
			return nil, err
		}
		if appointment.PatientID != patientID {
			return nil, apperrors.InvalidInput("Appointment belongs to a different patient")
		}
		record.AppointmentID = &appointmentID
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.ActionCreate, auditEntity, record.ID, author)
	s.events.Emit(ctx, event.TopicMedicalRecordCreated, record.ID, author, event.NewRecordPayload(record))
	return record, nil
}

// Get is open to any authenticated doctor.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter model.MedicalRecordFilter) ([]*model.MedicalRecord, int, error) {
	return s.repo.List(ctx, filter)
}

// authorize loads the record and applies the ownership guard. A missing record
// is NotFound; someone else's record is Forbidden.
func (s *Service) authorize(ctx context.Context, principal, id uuid.UUID, action, message string) (*model.MedicalRecord, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(principal, record) {
		s.metrics.Denied(action)
		s.auditor.Denied(ctx, action, auditEntity, id, principal)
		log.Ctx(ctx).Warn().
			Str("record_id", id.String()).
			Str("doctor_id", principal.String()).
			Str("action", action).
			Msg("medical record mutation denied")
		return nil, apperrors.Forbidden(message)
	}
	return record, nil
}

// AuthorizeUpdate reports whether principal may update the record. Handlers
// call it before reading the body.
func (s *Service) AuthorizeUpdate(ctx context.Context, principal, id uuid.UUID) error {
	_, err := s.authorize(ctx, principal, id, audit.ActionUpdate, msgUpdateDenied)
	return err
}

// Update checks ownership before the payload so a non-author always sees 403.
func (s *Service) Update(ctx context.Context, principal, id uuid.UUID, req *model.UpdateMedicalRecordRequest) (*model.MedicalRecord, error) {
	record, err := s.authorize(ctx, principal, id, audit.ActionUpdate, msgUpdateDenied)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	if req.ChiefComplaint != nil {
		record.ChiefComplaint = *req.ChiefComplaint
	}
	if req.Diagnosis != nil {
		record.Diagnosis = *req.Diagnosis
	}
	if req.Symptoms != nil {
		record.Symptoms = pq.StringArray(req.Symptoms)
	}
	if req.VitalSigns != nil {
		record.VitalSigns = *req.VitalSigns
	}
	if req.Prescriptions != nil {
		record.Prescriptions = model.Prescriptions(req.Prescriptions)
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}
	if req.FollowUpDate != nil {
		record.FollowUpDate = req.FollowUpDate
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.ActionUpdate, auditEntity, record.ID, principal)
	s.events.Emit(ctx, event.TopicMedicalRecordUpdated, record.ID, principal, event.NewRecordPayload(record))
	return record, nil
}

func (s *Service) Delete(ctx context.Context, principal, id uuid.UUID) error {
	if _, err := s.authorize(ctx, principal, id, audit.ActionDelete, msgDeleteDenied); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.ActionDelete, auditEntity, id, principal)
	s.events.Emit(ctx, event.TopicMedicalRecordDeleted, id, principal, event.DeletedPayload{ID: id})
	return nil
}

// History returns the patient's summary and records, newest visit first.
func (s *Service) History(ctx context.Context, patientID uuid.UUID) (*model.PatientHistory, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &model.PatientHistory{
		Patient: patient.Summary(),
		Records: records,
	}, nil
}
