package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// StructValidator validates bound request payloads.
type StructValidator interface {
	Struct(s interface{}) error
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse is the paginated envelope. currentPage is a string for
// compatibility with existing clients.
type ListResponse struct {
	Success     bool        `json:"success"`
	Count       int         `json:"count"`
	Total       int         `json:"total"`
	TotalPages  int         `json:"totalPages"`
	CurrentPage string      `json:"currentPage"`
	Data        interface{} `json:"data"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message})
}

// Counted writes data with a count of the items it holds.
func Counted(c *gin.Context, count int, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Count: &count, Data: data})
}

func List[T any](c *gin.Context, items []T, total int, params model.ListParams) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, ListResponse{
		Success:     true,
		Count:       len(items),
		Total:       total,
		TotalPages:  params.TotalPages(total),
		CurrentPage: strconv.Itoa(params.Page),
		Data:        items,
	})
}

// Fail hands err to the error middleware and stops the chain.
func Fail(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}

// Bind decodes the JSON body into req and validates it. On failure the error
// has already been recorded and the caller should return.
func Bind(c *gin.Context, v StructValidator, req interface{}) bool {
	if !Decode(c, req) {
		return false
	}
	if err := v.Struct(req); err != nil {
		Fail(c, err)
		return false
	}
	return true
}

// Decode only decodes; callers validate later.
func Decode(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			Fail(c, apperrors.InvalidInput("Request body is required"))
			return false
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Fail(c, apperrors.WithStatus(http.StatusRequestEntityTooLarge, "Request body too large"))
			return false
		}
		Fail(c, apperrors.InvalidInput("Invalid request body"))
		return false
	}
	return true
}

// ListParams reads page and limit from the query string.
func ListParams(c *gin.Context) model.ListParams {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return model.NewListParams(page, limit)
}

// PathID parses the :id parameter. A malformed id is reported as a missing
// resource.
func PathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Fail(c, apperrors.MalformedID(err))
		return uuid.Nil, false
	}
	return id, true
}

// QueryID parses an optional id filter. Empty or malformed values yield nil.
func QueryID(c *gin.Context, key string) *uuid.UUID {
	id, err := uuid.Parse(c.Query(key))
	if err != nil {
		return nil
	}
	return &id
}
