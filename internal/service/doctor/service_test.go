package doctor

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func TestSetActive(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Doctors()
	svc := NewService(repo, nil)

	admin := &model.Doctor{Name: "Admin", Email: "admin@clinic.com", LicenseNumber: "A1", Role: model.RoleAdmin, IsActive: true}
	doc := &model.Doctor{Name: "Doc", Email: "doc@clinic.com", LicenseNumber: "D1", Role: model.RoleDoctor, IsActive: true}
	require.NoError(t, repo.Create(ctx, admin))
	require.NoError(t, repo.Create(ctx, doc))

	_, err := svc.SetActive(ctx, doc, admin.ID, false)
	assert.Equal(t, http.StatusForbidden, apperrors.Normalize(err).StatusCode)

	_, err = svc.SetActive(ctx, admin, admin.ID, false)
	assert.Equal(t, http.StatusBadRequest, apperrors.Normalize(err).StatusCode)

	updated, err := svc.SetActive(ctx, admin, doc.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = svc.SetActive(ctx, admin, uuid.New(), true)
	assert.Equal(t, apperrors.Response{StatusCode: http.StatusNotFound, Message: "Doctor not found"}, apperrors.Normalize(err))
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Doctors()
	svc := NewService(repo, nil)

	require.NoError(t, repo.Create(ctx, &model.Doctor{Email: "a@clinic.com", LicenseNumber: "A"}))
	require.NoError(t, repo.Create(ctx, &model.Doctor{Email: "b@clinic.com", LicenseNumber: "B"}))

	list, total, err := svc.List(ctx, model.NewListParams(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 1)
}
