package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ListParams represents common pagination parameters
type ListParams struct {
	Page  int
	Limit int
}

// NewListParams clamps page and limit into their accepted ranges.
func NewListParams(page, limit int) ListParams {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return ListParams{Page: page, Limit: limit}
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns the number of pages needed for total items.
func (p ListParams) TotalPages(total int) int {
	if p.Limit <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
}

// jsonValue encodes v as text so lib/pq sends it as json rather than bytea.
func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
