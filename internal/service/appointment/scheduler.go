package appointment

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const minutesPerDay = 24 * 60

// Slot is a half-open interval [Start, End) in minutes after midnight on Date.
type Slot struct {
	Date  string
	Start int
	End   int
}

// NewSlot builds the slot occupied by an appointment starting at clock on date.
func NewSlot(date, clock string, duration int) (Slot, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return Slot{}, apperrors.InvalidInput("Invalid appointment date %q", date)
	}
	t, err := time.Parse(model.TimeLayout, clock)
	if err != nil {
		return Slot{}, apperrors.InvalidInput("Invalid appointment time %q", clock)
	}
	if duration < model.MinAppointmentDuration || duration > model.MaxAppointmentDuration {
		return Slot{}, apperrors.InvalidInput("Appointment duration must be between %d and %d minutes",
			model.MinAppointmentDuration, model.MaxAppointmentDuration)
	}

	start := t.Hour()*60 + t.Minute()
	end := start + duration
	if end > minutesPerDay {
		return Slot{}, apperrors.InvalidInput("Appointment must end on the same day")
	}
	return Slot{Date: date, Start: start, End: end}, nil
}

// CanonicalTime rewrites clock as zero-padded HH:MM. The parser accepts
// "9:00", which would otherwise sort after "10:00".
func CanonicalTime(clock string) (string, error) {
	t, err := time.Parse(model.TimeLayout, clock)
	if err != nil {
		return "", apperrors.InvalidInput("Invalid appointment time %q", clock)
	}
	return t.Format(model.TimeLayout), nil
}

func slotOf(a *model.Appointment) (Slot, error) {
	return NewSlot(a.AppointmentDate, a.AppointmentTime, a.Duration)
}

// Overlaps reports whether two slots intersect. Touching endpoints do not.
func (s Slot) Overlaps(o Slot) bool {
	return s.Date == o.Date && s.Start < o.End && o.Start < s.End
}

// FindConflict returns the first appointment in booked whose slot intersects
// requested. Cancelled appointments and excludeID never conflict.
func FindConflict(requested Slot, booked []*model.Appointment, excludeID *uuid.UUID) *model.Appointment {
	for _, a := range booked {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.Status == model.AppointmentStatusCancelled {
			continue
		}
		existing, err := slotOf(a)
		if err != nil {
			continue
		}
		if requested.Overlaps(existing) {
			return a
		}
	}
	return nil
}

var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusScheduled: {
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
	},
	model.AppointmentStatusConfirmed: {
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
	},
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status model.AppointmentStatus) bool {
	return len(transitions[status]) == 0
}

// CanTransition reports whether an appointment may move from one status to
// another. Staying in the same status is always allowed.
func CanTransition(from, to model.AppointmentStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func validateTransition(from, to model.AppointmentStatus) error {
	if !CanTransition(from, to) {
		return apperrors.InvalidInput("Cannot change appointment status from %s to %s", from, to)
	}
	return nil
}

// SortSchedule orders appointments by date, then start time.
func SortSchedule(appointments []*model.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		a, b := appointments[i], appointments[j]
		if a.AppointmentDate != b.AppointmentDate {
			return a.AppointmentDate < b.AppointmentDate
		}
		return startMinute(a) < startMinute(b)
	})
}

func startMinute(a *model.Appointment) int {
	t, err := time.Parse(model.TimeLayout, a.AppointmentTime)
	if err != nil {
		return minutesPerDay
	}
	return t.Hour()*60 + t.Minute()
}
