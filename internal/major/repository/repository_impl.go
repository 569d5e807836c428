package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	majordomain "github.com/statboard/statboard/internal/major/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() majordomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, m *majordomain.Major) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO majors (id, code, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID,
		m.Code,
		m.Name,
		m.CreatedAt,
		m.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, m *majordomain.Major) error {
	return db.WithContext(ctx).Exec(
		`UPDATE majors SET code = ?, name = ?, updated_at = ? WHERE id = ?`,
		m.Code,
		m.Name,
		m.UpdatedAt,
		m.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM majors WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*majordomain.Major, error) {
	var m majordomain.Major
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, created_at, updated_at FROM majors WHERE id = ?`, id,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*majordomain.Major, error) {
	var m majordomain.Major
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, created_at, updated_at FROM majors WHERE name = ?`, name,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, query string, limit, offset int) ([]majordomain.Major, int64, error) {
	where := ""
	var args []interface{}
	if q := strings.TrimSpace(query); q != "" {
		where = ` WHERE name LIKE ? OR code LIKE ?`
		like := "%" + q + "%"
		args = append(args, like, like)
	}

	var total int64
	if err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM majors`+where, args...).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	var majors []majordomain.Major
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, created_at, updated_at FROM majors`+where+` ORDER BY id ASC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	).Scan(&majors).Error
	if err != nil {
		return nil, 0, err
	}
	return majors, total, nil
}
