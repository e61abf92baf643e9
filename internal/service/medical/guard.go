package medical

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// CanMutate reports whether principal may update or delete record. Only the
// authoring doctor may; there is no role override.
func CanMutate(principal uuid.UUID, record *model.MedicalRecord) bool {
	return record != nil && principal != uuid.Nil && principal == record.DoctorID
}
