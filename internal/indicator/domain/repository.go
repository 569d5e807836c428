package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Query  string
	TypeID *snowflake.ID
	Status *int
}

// Denormalized carries indicator fields mirrored onto observation rows.
type Denormalized struct {
	Name     string
	TypeID   snowflake.ID
	MajorID  snowflake.ID
	Polarity int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, indicator *Indicator) error
	Update(ctx context.Context, db *gorm.DB, indicator *Indicator) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Indicator, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Indicator, error)
	FindByKey(ctx context.Context, db *gorm.DB, name string, majorID, typeID snowflake.ID) (*Indicator, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, limit, offset int) ([]Indicator, int64, error)
	ListAll(ctx context.Context, db *gorm.DB) ([]Indicator, error)
	ListByType(ctx context.Context, db *gorm.DB, typeID snowflake.ID) ([]Indicator, error)
	ListByMajor(ctx context.Context, db *gorm.DB, majorID snowflake.ID) ([]Indicator, error)
	Search(ctx context.Context, db *gorm.DB, query string, limit int) ([]Indicator, error)
	// PropagateDenormalized pushes renamed or retyped indicator fields onto
	// both observation tables so denormalized copies never drift.
	PropagateDenormalized(ctx context.Context, db *gorm.DB, id snowflake.ID, denorm Denormalized) error
}
