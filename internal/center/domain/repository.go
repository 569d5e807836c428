package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, center *Center) error
	Update(ctx context.Context, db *gorm.DB, center *Center) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Center, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Center, error)
	List(ctx context.Context, db *gorm.DB, districtID *snowflake.ID) ([]Center, error)
}
