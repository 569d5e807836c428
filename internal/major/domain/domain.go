package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/statboard/statboard/pkg/db/pagination"
	"gorm.io/gorm"
)

// Major groups indicators by professional domain.
type Major struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:text;not null;default:''"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Major) TableName() string { return "majors" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, major *Major) error
	Update(ctx context.Context, db *gorm.DB, major *Major) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Major, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Major, error)
	List(ctx context.Context, db *gorm.DB, query string, limit, offset int) ([]Major, int64, error)
}

type Service interface {
	List(ctx context.Context, req ListRequest) (*pagination.Page[Response], error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type ListRequest struct {
	Query string
	Page  pagination.Pagination
}

type CreateRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type UpdateRequest struct {
	ID   string  `json:"id"`
	Code *string `json:"code,omitempty"`
	Name *string `json:"name,omitempty"`
}

type Response struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
