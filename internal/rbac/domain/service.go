package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error

	ListPermissions(ctx context.Context, req ListPermissionsRequest) ([]PermissionResponse, error)
	CreatePermission(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error)
	UpdatePermission(ctx context.Context, req UpdatePermissionRequest) (*PermissionResponse, error)
	DeletePermission(ctx context.Context, id string) error

	GetRolePermissions(ctx context.Context, roleID string) ([]PermissionResponse, error)
	AssignRolePermissions(ctx context.Context, req AssignRequest) error
	RevokeRolePermission(ctx context.Context, roleID, permissionID string) error
}

type CreateRoleRequest struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Status *int   `json:"status"`
}

type UpdateRoleRequest struct {
	ID     string  `json:"id"`
	Name   *string `json:"name,omitempty"`
	Status *int    `json:"status,omitempty"`
}

type RoleResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Status    int       `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListPermissionsRequest struct {
	Query    string
	Resource string
	Action   string
	Status   *int
	RoleID   string
}

type CreatePermissionRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Status   *int   `json:"status"`
}

type UpdatePermissionRequest struct {
	ID       string  `json:"id"`
	Name     *string `json:"name,omitempty"`
	Resource *string `json:"resource,omitempty"`
	Action   *string `json:"action,omitempty"`
	Status   *int    `json:"status,omitempty"`
}

type PermissionResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Resource  string    `json:"resource"`
	Action    string    `json:"action"`
	Status    int       `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AssignRequest struct {
	RoleID        string   `json:"role_id"`
	PermissionIDs []string `json:"permission_ids"`
}

var (
	ErrInvalidCode = errors.New("invalid_code")
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
	ErrDuplicate   = errors.New("duplicate_code")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
