package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, district *District) error
	Update(ctx context.Context, db *gorm.DB, district *District) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*District, error)
	// FindByName matches against the canonical name or the short name.
	FindByName(ctx context.Context, db *gorm.DB, name string) (*District, error)
	List(ctx context.Context, db *gorm.DB) ([]District, error)
	Circles(ctx context.Context, db *gorm.DB) ([]int64, error)
}
