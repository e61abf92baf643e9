package validator

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type visit struct {
	Name    string   `json:"name" validate:"required"`
	Email   string   `json:"email" validate:"required,email"`
	Phone   string   `json:"phone" validate:"omitempty,e164"`
	Group   string   `json:"bloodGroup" validate:"omitempty,oneof=A+ A- O+ O-"`
	Date    string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Minutes int      `json:"duration" validate:"omitempty,min=15"`
	Items   []item   `json:"items" validate:"omitempty,dive"`
	Tags    []string `json:"-"`
}

type item struct {
	Medication string `json:"medication" validate:"required"`
}

func TestStructValid(t *testing.T) {
	v := New()
	err := v.Struct(&visit{Name: "Jane", Email: "jane.doe@email.com", Phone: "+1234567890", Group: "O+"})
	assert.NoError(t, err)
}

func TestStructReportsFieldsInOrder(t *testing.T) {
	v := New()

	err := v.Struct(&visit{})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	require.Len(t, appErr.Fields, 2)
	assert.Equal(t, "name", appErr.Fields[0].Field)
	assert.Equal(t, "email", appErr.Fields[1].Field)

	resp := apperrors.Normalize(err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "name is required, email is required", resp.Message)
}

func TestStructMessages(t *testing.T) {
	v := New()
	base := visit{Name: "Jane", Email: "jane@hospital.com"}

	tests := []struct {
		name    string
		mutate  func(*visit)
		message string
	}{
		{"email", func(s *visit) { s.Email = "test@domain" }, "email must be a valid email address"},
		{"phone", func(s *visit) { s.Phone = "invalid" }, "phone must be a valid phone number"},
		{"enum", func(s *visit) { s.Group = "Invalid" }, "bloodGroup must be one of [A+ A- O+ O-]"},
		{"date", func(s *visit) { s.Date = "01/12/2025" }, "date must match the format YYYY-MM-DD"},
		{"numeric min", func(s *visit) { s.Minutes = 5 }, "duration must be at least 15"},
		{"nested", func(s *visit) { s.Items = []item{{}} }, "items[0].medication is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			err := v.Struct(&s)
			require.Error(t, err)
			assert.Equal(t, tt.message, apperrors.Normalize(err).Message)
		})
	}
}

func TestStrictEmail(t *testing.T) {
	v := New()
	for _, email := range []string{"test@", "test", "test@.com", "test@domain"} {
		err := v.Struct(&visit{Name: "Jane", Email: email})
		assert.Error(t, err, email)
	}
}
