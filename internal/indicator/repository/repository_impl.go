package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	indicatordomain "github.com/statboard/statboard/internal/indicator/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() indicatordomain.Repository {
	return &repo{}
}

const indicatorColumns = `id, name, unit, major_id, type_id, polarity, data_owner, data_dept, description, status, version, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, in *indicatordomain.Indicator) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO indicators (id, name, unit, major_id, type_id, polarity, data_owner, data_dept, description, status, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID,
		in.Name,
		in.Unit,
		in.MajorID,
		in.TypeID,
		in.Polarity,
		in.DataOwner,
		in.DataDept,
		in.Description,
		in.Status,
		in.Version,
		in.CreatedAt,
		in.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, in *indicatordomain.Indicator) error {
	return db.WithContext(ctx).Exec(
		`UPDATE indicators
		 SET name = ?, unit = ?, major_id = ?, type_id = ?, polarity = ?, data_owner = ?, data_dept = ?, description = ?, status = ?, version = ?, updated_at = ?
		 WHERE id = ?`,
		in.Name,
		in.Unit,
		in.MajorID,
		in.TypeID,
		in.Polarity,
		in.DataOwner,
		in.DataDept,
		in.Description,
		in.Status,
		in.Version,
		in.UpdatedAt,
		in.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM indicators WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*indicatordomain.Indicator, error) {
	var in indicatordomain.Indicator
	err := db.WithContext(ctx).Raw(
		`SELECT `+indicatorColumns+` FROM indicators WHERE id = ?`,
		id,
	).Scan(&in).Error
	if err != nil {
		return nil, err
	}
	if in.ID == 0 {
		return nil, nil
	}
	return &in, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*indicatordomain.Indicator, error) {
	var in indicatordomain.Indicator
	err := db.WithContext(ctx).Raw(
		`SELECT `+indicatorColumns+` FROM indicators WHERE name = ?`,
		name,
	).Scan(&in).Error
	if err != nil {
		return nil, err
	}
	if in.ID == 0 {
		return nil, nil
	}
	return &in, nil
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, name string, majorID, typeID snowflake.ID) (*indicatordomain.Indicator, error) {
	var in indicatordomain.Indicator
	err := db.WithContext(ctx).Raw(
		`SELECT `+indicatorColumns+` FROM indicators WHERE name = ? AND major_id = ? AND type_id = ?`,
		name,
		majorID,
		typeID,
	).Scan(&in).Error
	if err != nil {
		return nil, err
	}
	if in.ID == 0 {
		return nil, nil
	}
	return &in, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter indicatordomain.ListFilter, limit, offset int) ([]indicatordomain.Indicator, int64, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, `name LIKE ?`)
		args = append(args, "%"+q+"%")
	}
	if filter.TypeID != nil {
		where = append(where, `type_id = ?`)
		args = append(args, *filter.TypeID)
	}
	if filter.Status != nil {
		where = append(where, `status = ?`)
		args = append(args, *filter.Status)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM indicators`+clause,
		args...,
	).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	var indicators []indicatordomain.Indicator
	listArgs := append(append([]interface{}{}, args...), limit, offset)
	err := db.WithContext(ctx).Raw(
		`SELECT `+indicatorColumns+` FROM indicators`+clause+` ORDER BY id ASC LIMIT ? OFFSET ?`,
		listArgs...,
	).Scan(&indicators).Error
	if err != nil {
		return nil, 0, err
	}
	return indicators, total, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB) ([]indicatordomain.Indicator, error) {
	var indicators []indicatordomain.Indicator
	err := db.WithContext(ctx).Raw(
		`SELECT ` + indicatorColumns + ` FROM indicators ORDER BY id ASC`,
	).Scan(&indicators).Error
	if err != nil {
		return nil, err
	}
	return indicators, nil
}

func (r *repo) ListByType(ctx context.Context, db *gorm.DB, typeID snowflake.ID) ([]indicatordomain.Indicator, error) {
	var indicators []indicatordomain.Indicator
	err := db.WithContext(ctx).Raw(
		`SELECT `+indicatorColumns+` FROM indicators WHERE type_id = ? AND status = ? ORDER BY name ASC`,
		typeID,
		indicatordomain.StatusActive,
	).Scan(&indicators).Error
	if err != nil {
		return nil, err
	}
	return indicators, nil
}

func (r *repo) ListByMajor(ctx context.Context, db *gorm.DB, majorID snowflake.ID) ([]indicatordomain.Indicator, error) {
	var indicators []indicatordomain.Indicator
	err := db.WithContext(ctx).Raw(
		`SELECT `+indicatorColumns+` FROM indicators WHERE major_id = ? AND status = ? ORDER BY id ASC`,
		majorID,
		indicatordomain.StatusActive,
	).Scan(&indicators).Error
	if err != nil {
		return nil, err
	}
	return indicators, nil
}

func (r *repo) Search(ctx context.Context, db *gorm.DB, query string, limit int) ([]indicatordomain.Indicator, error) {
	var indicators []indicatordomain.Indicator
	err := db.WithContext(ctx).Raw(
		`SELECT `+indicatorColumns+` FROM indicators
		 WHERE status = ? AND name LIKE ?
		 ORDER BY updated_at DESC, id DESC
		 LIMIT ?`,
		indicatordomain.StatusActive,
		"%"+strings.TrimSpace(query)+"%",
		limit,
	).Scan(&indicators).Error
	if err != nil {
		return nil, err
	}
	return indicators, nil
}

func (r *repo) PropagateDenormalized(ctx context.Context, db *gorm.DB, id snowflake.ID, denorm indicatordomain.Denormalized) error {
	err := db.WithContext(ctx).Exec(
		`UPDATE observations
		 SET indicator_name = ?, type_id = ?, major_id = ?, polarity = ?
		 WHERE indicator_id = ?`,
		denorm.Name,
		denorm.TypeID,
		denorm.MajorID,
		denorm.Polarity,
		id,
	).Error
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`UPDATE center_observations
		 SET indicator_name = ?, type_id = ?, major_id = ?, polarity = ?
		 WHERE indicator_id = ?`,
		denorm.Name,
		denorm.TypeID,
		denorm.MajorID,
		denorm.Polarity,
		id,
	).Error
}
