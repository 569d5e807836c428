package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	// SuperuserRoleCode marks the role that bypasses permission checks.
	SuperuserRoleCode = "admin"

	StatusActive   = 1
	StatusDisabled = 0
)

// Role groups permissions for assignment to users.
type Role struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:text;not null;uniqueIndex:ux_roles_code"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Status    int          `json:"status" gorm:"not null;default:1"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Role) TableName() string { return "roles" }

// Permission is a named capability checked on protected operations.
type Permission struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:text;not null;uniqueIndex:ux_permissions_code"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Resource  string       `json:"resource" gorm:"type:text;not null;default:''"`
	Action    string       `json:"action" gorm:"type:text;not null;default:''"`
	Status    int          `json:"status" gorm:"not null;default:1"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Permission) TableName() string { return "permissions" }

// RolePermission links a role to a granted permission.
type RolePermission struct {
	RoleID       snowflake.ID `json:"role_id" gorm:"primaryKey"`
	PermissionID snowflake.ID `json:"permission_id" gorm:"primaryKey"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (RolePermission) TableName() string { return "role_permissions" }
