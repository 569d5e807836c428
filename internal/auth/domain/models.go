package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusActive   = 1
	StatusDisabled = 0
)

// User is an account that can sign in to the backend.
type User struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Username     string       `json:"username" gorm:"type:text;not null;uniqueIndex:ux_users_username"`
	PasswordHash string       `json:"-" gorm:"column:password_hash;type:text;not null"`
	Phone        *string      `json:"phone" gorm:"type:text"`
	RoleID       snowflake.ID `json:"role_id" gorm:"column:role_id"`
	Status       int          `json:"status" gorm:"not null;default:1"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }
