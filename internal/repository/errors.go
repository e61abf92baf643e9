package repository

import (
	"fmt"
	"net/http"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// HasDependents is returned when a delete is refused because other rows
// still reference the entity.
func HasDependents(entity string) *apperrors.AppError {
	return apperrors.WithStatus(http.StatusBadRequest,
		fmt.Sprintf("%s has appointments or medical records and cannot be deleted", entity))
}
