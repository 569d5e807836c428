package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	rbacdomain "github.com/statboard/statboard/internal/rbac/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() rbacdomain.Repository {
	return &repo{}
}

func (r *repo) InsertRole(ctx context.Context, db *gorm.DB, role *rbacdomain.Role) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO roles (id, code, name, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		role.ID,
		role.Code,
		role.Name,
		role.Status,
		role.CreatedAt,
		role.UpdatedAt,
	).Error
}

func (r *repo) UpdateRole(ctx context.Context, db *gorm.DB, role *rbacdomain.Role) error {
	return db.WithContext(ctx).Exec(
		`UPDATE roles SET name = ?, status = ?, updated_at = ? WHERE id = ?`,
		role.Name,
		role.Status,
		role.UpdatedAt,
		role.ID,
	).Error
}

func (r *repo) DeleteRole(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM role_permissions WHERE role_id = ?`, id,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM roles WHERE id = ?`, id).Error
}

func (r *repo) FindRoleByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*rbacdomain.Role, error) {
	var role rbacdomain.Role
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, status, created_at, updated_at FROM roles WHERE id = ?`, id,
	).Scan(&role).Error
	if err != nil {
		return nil, err
	}
	if role.ID == 0 {
		return nil, nil
	}
	return &role, nil
}

func (r *repo) FindRoleByCode(ctx context.Context, db *gorm.DB, code string) (*rbacdomain.Role, error) {
	var role rbacdomain.Role
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, status, created_at, updated_at FROM roles WHERE code = ?`, code,
	).Scan(&role).Error
	if err != nil {
		return nil, err
	}
	if role.ID == 0 {
		return nil, nil
	}
	return &role, nil
}

func (r *repo) ListRoles(ctx context.Context, db *gorm.DB) ([]rbacdomain.Role, error) {
	var roles []rbacdomain.Role
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, status, created_at, updated_at FROM roles ORDER BY created_at ASC`,
	).Scan(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *repo) InsertPermission(ctx context.Context, db *gorm.DB, perm *rbacdomain.Permission) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO permissions (id, code, name, resource, action, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		perm.ID,
		perm.Code,
		perm.Name,
		perm.Resource,
		perm.Action,
		perm.Status,
		perm.CreatedAt,
		perm.UpdatedAt,
	).Error
}

func (r *repo) UpdatePermission(ctx context.Context, db *gorm.DB, perm *rbacdomain.Permission) error {
	return db.WithContext(ctx).Exec(
		`UPDATE permissions
		 SET name = ?, resource = ?, action = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		perm.Name,
		perm.Resource,
		perm.Action,
		perm.Status,
		perm.UpdatedAt,
		perm.ID,
	).Error
}

func (r *repo) DeletePermission(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM role_permissions WHERE permission_id = ?`, id,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM permissions WHERE id = ?`, id).Error
}

func (r *repo) FindPermissionByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*rbacdomain.Permission, error) {
	var perm rbacdomain.Permission
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, resource, action, status, created_at, updated_at
		 FROM permissions WHERE id = ?`, id,
	).Scan(&perm).Error
	if err != nil {
		return nil, err
	}
	if perm.ID == 0 {
		return nil, nil
	}
	return &perm, nil
}

func (r *repo) FindPermissionByCode(ctx context.Context, db *gorm.DB, code string) (*rbacdomain.Permission, error) {
	var perm rbacdomain.Permission
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, resource, action, status, created_at, updated_at
		 FROM permissions WHERE code = ?`, code,
	).Scan(&perm).Error
	if err != nil {
		return nil, err
	}
	if perm.ID == 0 {
		return nil, nil
	}
	return &perm, nil
}

func (r *repo) ListPermissions(ctx context.Context, db *gorm.DB, filter rbacdomain.PermissionFilter) ([]rbacdomain.Permission, error) {
	query := `SELECT p.id, p.code, p.name, p.resource, p.action, p.status, p.created_at, p.updated_at
		 FROM permissions p`
	var (
		clauses []string
		args    []interface{}
	)

	if filter.RoleID != nil {
		query += ` JOIN role_permissions rp ON rp.permission_id = p.id`
		clauses = append(clauses, `rp.role_id = ?`)
		args = append(args, *filter.RoleID)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		clauses = append(clauses, `(p.code LIKE ? OR p.name LIKE ?)`)
		like := "%" + q + "%"
		args = append(args, like, like)
	}
	if filter.Resource != "" {
		clauses = append(clauses, `p.resource = ?`)
		args = append(args, filter.Resource)
	}
	if filter.Action != "" {
		clauses = append(clauses, `p.action = ?`)
		args = append(args, filter.Action)
	}
	if filter.Status != nil {
		clauses = append(clauses, `p.status = ?`)
		args = append(args, *filter.Status)
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY p.created_at ASC`

	var perms []rbacdomain.Permission
	err := db.WithContext(ctx).Raw(query, args...).Scan(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *repo) ListRolePermissions(ctx context.Context, db *gorm.DB, roleID snowflake.ID) ([]rbacdomain.Permission, error) {
	var perms []rbacdomain.Permission
	err := db.WithContext(ctx).Raw(
		`SELECT p.id, p.code, p.name, p.resource, p.action, p.status, p.created_at, p.updated_at
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = ?
		 ORDER BY p.created_at ASC`,
		roleID,
	).Scan(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *repo) ReplaceRolePermissions(ctx context.Context, db *gorm.DB, roleID snowflake.ID, permissionIDs []snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM role_permissions WHERE role_id = ?`, roleID).Error; err != nil {
			return err
		}
		for _, permID := range permissionIDs {
			if err := tx.Exec(
				`INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)`,
				roleID, permID,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) RevokeRolePermission(ctx context.Context, db *gorm.DB, roleID, permissionID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM role_permissions WHERE role_id = ? AND permission_id = ?`,
		roleID, permissionID,
	).Error
}
