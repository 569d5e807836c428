package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	List(ctx context.Context) ([]Response, error)
	Circles(ctx context.Context) ([]int64, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	CircleID  string `json:"circle_id"`
}

type UpdateRequest struct {
	ID        string  `json:"id"`
	Name      *string `json:"name,omitempty"`
	ShortName *string `json:"short_name,omitempty"`
	CircleID  *string `json:"circle_id,omitempty"`
}

type Response struct {
	ID        string    `json:"id"`
	CircleID  string    `json:"circle_id,omitempty"`
	Name      string    `json:"name"`
	ShortName string    `json:"short_name"`
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
