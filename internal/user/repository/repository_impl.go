package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/statboard/statboard/internal/user/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() userdomain.Repository {
	return &repo{}
}

const selectColumns = `u.id, u.username, u.password_hash, u.phone, u.role_id, u.status,
	 u.created_at, u.updated_at, COALESCE(r.name, '') AS role_name`

func buildWhere(filter userdomain.Filter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		clauses = append(clauses, `(u.username LIKE ? OR u.phone LIKE ?)`)
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	if filter.RoleID != nil {
		clauses = append(clauses, `u.role_id = ?`)
		args = append(args, *filter.RoleID)
	}
	if filter.Status != nil {
		clauses = append(clauses, `u.status = ?`)
		args = append(args, *filter.Status)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(clauses, ` AND `), args
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter userdomain.Filter, limit, offset int) ([]userdomain.Row, int64, error) {
	where, args := buildWhere(filter)

	var total int64
	if err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM users u`+where, args...,
	).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + selectColumns + `
		 FROM users u
		 LEFT JOIN roles r ON r.id = u.role_id` + where + `
		 ORDER BY u.created_at ASC LIMIT ? OFFSET ?`

	var rows []userdomain.Row
	err := db.WithContext(ctx).Raw(query, append(args, limit, offset)...).Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*userdomain.Row, error) {
	var row userdomain.Row
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM users u
		 LEFT JOIN roles r ON r.id = u.role_id
		 WHERE u.id = ?`,
		id,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM users WHERE id = ?`, id).Error
}
