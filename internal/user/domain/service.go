package domain

import (
	"context"
	"errors"
	"time"

	"github.com/statboard/statboard/pkg/db/pagination"
)

// DefaultPassword is assigned when an administrator creates an account
// without choosing one.
const DefaultPassword = "user123456"

type Service interface {
	List(ctx context.Context, req ListRequest) (*pagination.Page[Response], error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type ListRequest struct {
	Query  string
	RoleID string
	Status *int
	Page   pagination.Pagination
}

type CreateRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
	RoleID   string  `json:"role_id"`
	Status   *int    `json:"status,omitempty"`
}

type UpdateRequest struct {
	ID       string  `json:"id"`
	Password *string `json:"password,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	RoleID   *string `json:"role_id,omitempty"`
	Status   *int    `json:"status,omitempty"`
}

type Response struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Phone     *string   `json:"phone"`
	RoleID    string    `json:"role_id,omitempty"`
	RoleName  string    `json:"role_name,omitempty"`
	Status    int       `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidUsername = errors.New("invalid_username")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
	ErrUserExists      = errors.New("user_exists")
)
