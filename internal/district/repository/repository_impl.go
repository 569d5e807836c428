package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	districtdomain "github.com/statboard/statboard/internal/district/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() districtdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, d *districtdomain.District) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO districts (id, circle_id, name, short_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.CircleID,
		d.Name,
		d.ShortName,
		d.CreatedAt,
		d.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, d *districtdomain.District) error {
	return db.WithContext(ctx).Exec(
		`UPDATE districts
		 SET circle_id = ?, name = ?, short_name = ?, updated_at = ?
		 WHERE id = ?`,
		d.CircleID,
		d.Name,
		d.ShortName,
		d.UpdatedAt,
		d.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM districts WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*districtdomain.District, error) {
	var d districtdomain.District
	err := db.WithContext(ctx).Raw(
		`SELECT id, circle_id, name, short_name, created_at, updated_at
		 FROM districts WHERE id = ?`,
		id,
	).Scan(&d).Error
	if err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, nil
	}
	return &d, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*districtdomain.District, error) {
	var d districtdomain.District
	err := db.WithContext(ctx).Raw(
		`SELECT id, circle_id, name, short_name, created_at, updated_at
		 FROM districts WHERE name = ? OR short_name = ?`,
		name,
		name,
	).Scan(&d).Error
	if err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, nil
	}
	return &d, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]districtdomain.District, error) {
	var districts []districtdomain.District
	err := db.WithContext(ctx).Raw(
		`SELECT id, circle_id, name, short_name, created_at, updated_at
		 FROM districts ORDER BY id ASC`,
	).Scan(&districts).Error
	if err != nil {
		return nil, err
	}
	return districts, nil
}

func (r *repo) Circles(ctx context.Context, db *gorm.DB) ([]int64, error) {
	var circles []int64
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT circle_id FROM districts WHERE circle_id <> 0 ORDER BY circle_id ASC`,
	).Scan(&circles).Error
	if err != nil {
		return nil, err
	}
	return circles, nil
}
