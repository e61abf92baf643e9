package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// Validator runs struct validation and reports failures as an ordered list
// of field messages.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s. A failure is returned as a validation AppError whose
// fields follow struct declaration order.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validate request: %w", err)
	}

	fields := make([]apperrors.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields = append(fields, apperrors.FieldError{
			Field:   fieldPath(e),
			Message: message(e),
		})
	}
	return apperrors.Validation(fields...)
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func message(e validator.FieldError) string {
	field := fieldPath(e)
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "e164":
		return field + " must be a valid phone number"
	case "uuid":
		return field + " must be a valid id"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, e.Param())
	case "datetime":
		return fmt.Sprintf("%s must match the format %s", field, layoutName(e.Param()))
	case "min":
		if isNumeric(e.Kind()) {
			return fmt.Sprintf("%s must be at least %s", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		if isNumeric(e.Kind()) {
			return fmt.Sprintf("%s must be at most %s", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, e.Param())
	default:
		return field + " is invalid"
	}
}

func layoutName(layout string) string {
	switch layout {
	case "2006-01-02":
		return "YYYY-MM-DD"
	case "15:04":
		return "HH:MM"
	default:
		return layout
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
