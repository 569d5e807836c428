package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	centerdomain "github.com/statboard/statboard/internal/center/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() centerdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, c *centerdomain.Center) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO centers (id, district_id, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID,
		c.DistrictID,
		c.Name,
		c.CreatedAt,
		c.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, c *centerdomain.Center) error {
	return db.WithContext(ctx).Exec(
		`UPDATE centers SET district_id = ?, name = ?, updated_at = ? WHERE id = ?`,
		c.DistrictID,
		c.Name,
		c.UpdatedAt,
		c.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM centers WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*centerdomain.Center, error) {
	var c centerdomain.Center
	err := db.WithContext(ctx).Raw(
		`SELECT id, district_id, name, created_at, updated_at FROM centers WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*centerdomain.Center, error) {
	var c centerdomain.Center
	err := db.WithContext(ctx).Raw(
		`SELECT id, district_id, name, created_at, updated_at FROM centers WHERE name = ?`,
		name,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, districtID *snowflake.ID) ([]centerdomain.Center, error) {
	query := `SELECT id, district_id, name, created_at, updated_at FROM centers`
	var args []interface{}
	if districtID != nil {
		query += ` WHERE district_id = ?`
		args = append(args, *districtID)
	}
	query += ` ORDER BY id ASC`

	var centers []centerdomain.Center
	err := db.WithContext(ctx).Raw(query, args...).Scan(&centers).Error
	if err != nil {
		return nil, err
	}
	return centers, nil
}
