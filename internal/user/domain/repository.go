package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/statboard/statboard/internal/auth/domain"
	"gorm.io/gorm"
)

// Row joins a user with its role name for admin listings.
type Row struct {
	authdomain.User
	RoleName string `gorm:"column:role_name"`
}

type Filter struct {
	Query  string
	RoleID *snowflake.ID
	Status *int
}

type Repository interface {
	List(ctx context.Context, db *gorm.DB, filter Filter, limit, offset int) ([]Row, int64, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Row, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
