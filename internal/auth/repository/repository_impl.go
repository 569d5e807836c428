package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/statboard/statboard/internal/auth/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() authdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, u *authdomain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, username, password_hash, phone, role_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Username,
		u.PasswordHash,
		u.Phone,
		u.RoleID,
		u.Status,
		u.CreatedAt,
		u.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, u *authdomain.User) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users
		 SET password_hash = ?, phone = ?, role_id = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		u.PasswordHash,
		u.Phone,
		u.RoleID,
		u.Status,
		u.UpdatedAt,
		u.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*authdomain.User, error) {
	var user authdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, username, password_hash, phone, role_id, status, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindByUsername(ctx context.Context, db *gorm.DB, username string) (*authdomain.User, error) {
	var user authdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, username, password_hash, phone, role_id, status, created_at, updated_at
		 FROM users WHERE username = ?`,
		username,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindByAccount(ctx context.Context, db *gorm.DB, account string) (*authdomain.User, error) {
	var user authdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, username, password_hash, phone, role_id, status, created_at, updated_at
		 FROM users WHERE username = ? OR phone = ?`,
		account,
		account,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}
