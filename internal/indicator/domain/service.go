package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/statboard/statboard/pkg/db/pagination"
)

type Service interface {
	List(ctx context.Context, req ListRequest) (*pagination.Page[Response], error)
	ListAll(ctx context.Context) ([]Response, error)
	ListByType(ctx context.Context, typeID string) ([]Response, error)
	Search(ctx context.Context, query string, limit int) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	// BulkUpsert resolves each row by (name, major, type) and inserts or
	// updates accordingly. Used by the indicator spreadsheet upload.
	BulkUpsert(ctx context.Context, rows []BulkRow) (*BulkResult, error)
}

type ListRequest struct {
	Query  string
	TypeID string
	Status *int
	Page   pagination.Pagination
}

type CreateRequest struct {
	Name        string  `json:"name"`
	Unit        *string `json:"unit,omitempty"`
	MajorID     string  `json:"major_id"`
	TypeID      string  `json:"type_id"`
	Polarity    *int    `json:"polarity,omitempty"`
	DataOwner   *string `json:"data_owner,omitempty"`
	DataDept    *string `json:"data_dept,omitempty"`
	Description *string `json:"description,omitempty"`
}

type UpdateRequest struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Unit        *string `json:"unit,omitempty"`
	MajorID     *string `json:"major_id,omitempty"`
	TypeID      *string `json:"type_id,omitempty"`
	Polarity    *int    `json:"polarity,omitempty"`
	DataOwner   *string `json:"data_owner,omitempty"`
	DataDept    *string `json:"data_dept,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *int    `json:"status,omitempty"`
}

type Response struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Unit        *string   `json:"unit"`
	MajorID     string    `json:"major_id,omitempty"`
	TypeID      string    `json:"type_id,omitempty"`
	Polarity    int       `json:"polarity"`
	DataOwner   *string   `json:"data_owner"`
	DataDept    *string   `json:"data_dept"`
	Description *string   `json:"description"`
	Status      int       `json:"status"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BulkRow is one resolved indicator definition from a manage upload.
type BulkRow struct {
	Name        string
	Unit        *string
	MajorID     snowflake.ID
	TypeID      snowflake.ID
	Polarity    int
	DataOwner   *string
	DataDept    *string
	Description *string
}

type BulkResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

var (
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPolarity = errors.New("invalid_polarity")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
