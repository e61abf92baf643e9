package errors

import (
	"errors"
	"net/http"
	"strings"
)

// Response is the normalized status and message pair written to clients.
type Response struct {
	StatusCode int
	Message    string
}

// Normalize maps any error to the status code and message exposed by the API.
// It is the only place that decides both.
func Normalize(err error) Response {
	if err == nil {
		return Response{StatusCode: http.StatusInternalServerError}
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return Response{StatusCode: http.StatusInternalServerError, Message: err.Error()}
	}

	switch appErr.Kind {
	case KindMalformedID:
		return Response{StatusCode: http.StatusNotFound, Message: "Resource not found"}
	case KindDuplicate:
		return Response{StatusCode: http.StatusBadRequest, Message: appErr.Field + " already exists"}
	case KindValidation:
		msgs := make([]string, 0, len(appErr.Fields))
		for _, f := range appErr.Fields {
			msgs = append(msgs, f.Message)
		}
		return Response{StatusCode: http.StatusBadRequest, Message: strings.Join(msgs, ", ")}
	}

	if appErr.Status != 0 {
		return Response{StatusCode: appErr.Status, Message: appErr.Message}
	}

	return Response{StatusCode: http.StatusInternalServerError, Message: appErr.Message}
}
