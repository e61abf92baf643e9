package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories understood by Normalize.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindSlotConflict
	KindForbidden
	KindUnauthenticated
	KindValidation
	KindMalformedID
	KindDuplicate
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindSlotConflict:
		return "slot_conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation_failed"
	case KindMalformedID:
		return "malformed_id"
	case KindDuplicate:
		return "duplicate"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents an application error
type AppError struct {
	Kind    Kind
	Status  int
	Message string
	Field   string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can write errors.Is(err, errors.ErrNotFound).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Status == 0
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound        = &AppError{Kind: KindNotFound}
	ErrSlotConflict    = &AppError{Kind: KindSlotConflict}
	ErrForbidden       = &AppError{Kind: KindForbidden}
	ErrUnauthenticated = &AppError{Kind: KindUnauthenticated}
	ErrValidation      = &AppError{Kind: KindValidation}
	ErrMalformedID     = &AppError{Kind: KindMalformedID}
	ErrDuplicate       = &AppError{Kind: KindDuplicate}
	ErrInvalidInput    = &AppError{Kind: KindInvalidInput}
)

func NotFound(entity string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s not found", entity),
	}
}

func SlotConflict(err error) *AppError {
	return &AppError{
		Kind:    KindSlotConflict,
		Status:  http.StatusBadRequest,
		Message: "Doctor is already booked at this time",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Kind:    KindForbidden,
		Status:  http.StatusForbidden,
		Message: message,
	}
}

func Unauthenticated(message string) *AppError {
	return &AppError{
		Kind:    KindUnauthenticated,
		Status:  http.StatusUnauthorized,
		Message: message,
	}
}

func InvalidInput(format string, args ...interface{}) *AppError {
	return &AppError{
		Kind:    KindInvalidInput,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf(format, args...),
	}
}

func Validation(fields ...FieldError) *AppError {
	return &AppError{
		Kind:   KindValidation,
		Fields: fields,
	}
}

func MalformedID(err error) *AppError {
	return &AppError{
		Kind: KindMalformedID,
		Err:  err,
	}
}

func Duplicate(field string, err error) *AppError {
	return &AppError{
		Kind:  KindDuplicate,
		Field: field,
		Err:   err,
	}
}

// WithStatus builds an error that carries an explicit HTTP status.
func WithStatus(status int, message string) *AppError {
	return &AppError{
		Kind:    KindInvalidInput,
		Status:  status,
		Message: message,
	}
}

func Unknown(err error) *AppError {
	e := &AppError{Kind: KindUnknown, Err: err}
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

// KindOf reports the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}
