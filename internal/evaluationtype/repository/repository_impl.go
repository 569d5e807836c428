package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	etdomain "github.com/statboard/statboard/internal/evaluationtype/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() etdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, et *etdomain.EvaluationType) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO evaluation_types (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		et.ID,
		et.Name,
		et.CreatedAt,
		et.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, et *etdomain.EvaluationType) error {
	return db.WithContext(ctx).Exec(
		`UPDATE evaluation_types SET name = ?, updated_at = ? WHERE id = ?`,
		et.Name,
		et.UpdatedAt,
		et.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM evaluation_types WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*etdomain.EvaluationType, error) {
	var et etdomain.EvaluationType
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, created_at, updated_at FROM evaluation_types WHERE id = ?`, id,
	).Scan(&et).Error
	if err != nil {
		return nil, err
	}
	if et.ID == 0 {
		return nil, nil
	}
	return &et, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*etdomain.EvaluationType, error) {
	var et etdomain.EvaluationType
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, created_at, updated_at FROM evaluation_types WHERE name = ?`, name,
	).Scan(&et).Error
	if err != nil {
		return nil, err
	}
	if et.ID == 0 {
		return nil, nil
	}
	return &et, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, query string, limit, offset int) ([]etdomain.EvaluationType, int64, error) {
	where := ""
	var args []interface{}
	if q := strings.TrimSpace(query); q != "" {
		where = ` WHERE name LIKE ?`
		args = append(args, "%"+q+"%")
	}

	var total int64
	if err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM evaluation_types`+where, args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	var types []etdomain.EvaluationType
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, created_at, updated_at FROM evaluation_types`+where+` ORDER BY id ASC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	).Scan(&types).Error
	if err != nil {
		return nil, 0, err
	}
	return types, total, nil
}
