package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertRole(ctx context.Context, db *gorm.DB, role *Role) error
	UpdateRole(ctx context.Context, db *gorm.DB, role *Role) error
	DeleteRole(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindRoleByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Role, error)
	FindRoleByCode(ctx context.Context, db *gorm.DB, code string) (*Role, error)
	ListRoles(ctx context.Context, db *gorm.DB) ([]Role, error)

	InsertPermission(ctx context.Context, db *gorm.DB, perm *Permission) error
	UpdatePermission(ctx context.Context, db *gorm.DB, perm *Permission) error
	DeletePermission(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindPermissionByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Permission, error)
	FindPermissionByCode(ctx context.Context, db *gorm.DB, code string) (*Permission, error)
	ListPermissions(ctx context.Context, db *gorm.DB, filter PermissionFilter) ([]Permission, error)

	ListRolePermissions(ctx context.Context, db *gorm.DB, roleID snowflake.ID) ([]Permission, error)
	ReplaceRolePermissions(ctx context.Context, db *gorm.DB, roleID snowflake.ID, permissionIDs []snowflake.ID) error
	RevokeRolePermission(ctx context.Context, db *gorm.DB, roleID, permissionID snowflake.ID) error
}

type PermissionFilter struct {
	Query    string
	Resource string
	Action   string
	Status   *int
	RoleID   *snowflake.ID
}
