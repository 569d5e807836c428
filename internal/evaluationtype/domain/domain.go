package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/statboard/statboard/pkg/db/pagination"
	"gorm.io/gorm"
)

// EvaluationType classifies indicators into scoring families.
type EvaluationType struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null;uniqueIndex:ux_evaluation_types_name"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (EvaluationType) TableName() string { return "evaluation_types" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, et *EvaluationType) error
	Update(ctx context.Context, db *gorm.DB, et *EvaluationType) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*EvaluationType, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*EvaluationType, error)
	List(ctx context.Context, db *gorm.DB, query string, limit, offset int) ([]EvaluationType, int64, error)
}

type Service interface {
	List(ctx context.Context, req ListRequest) (*pagination.Page[Response], error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type ListRequest struct {
	Query string
	Page  pagination.Pagination
}

type CreateRequest struct {
	Name string `json:"name"`
}

type UpdateRequest struct {
	ID   string  `json:"id"`
	Name *string `json:"name,omitempty"`
}

type Response struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
	ErrDuplicate   = errors.New("duplicate_name")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
