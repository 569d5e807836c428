package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	// Authenticate verifies a bearer token and returns the caller identity.
	// It is a pure lookup with no side effects.
	Authenticate(ctx context.Context, token string) (*Identity, error)
	Me(ctx context.Context, userID snowflake.ID) (*UserResponse, error)
	ChangePassword(ctx context.Context, userID snowflake.ID, req ChangePasswordRequest) error
	UpdateProfile(ctx context.Context, userID snowflake.ID, req UpdateProfileRequest) (*UserResponse, error)
}

type LoginRequest struct {
	Account  string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type UpdateProfileRequest struct {
	Phone *string `json:"phone,omitempty"`
}

type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
	User      UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Phone     *string   `json:"phone"`
	RoleID    string    `json:"role_id,omitempty"`
	Status    int       `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity is the authenticated caller attached to request context.
type Identity struct {
	UserID snowflake.ID
	RoleID snowflake.ID
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserExists         = errors.New("user_exists")
	ErrWeakPassword       = errors.New("weak_password")
	ErrInvalidUsername    = errors.New("invalid_username")
	ErrNotFound           = errors.New("not_found")
)
