package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/statboard/statboard/internal/auth/domain"
	"github.com/statboard/statboard/internal/auth/password"
	"github.com/statboard/statboard/internal/config"
	rbacdomain "github.com/statboard/statboard/internal/rbac/domain"
	"gorm.io/gorm"
)

type seedPermission struct {
	Code     string
	Name     string
	Resource string
	Action   string
}

var basePermissions = []seedPermission{
	{"indicator:view", "View indicators", "indicator", "view"},
	{"indicator:add", "Create indicators", "indicator", "add"},
	{"indicator:edit", "Edit indicators", "indicator", "edit"},
	{"indicator:delete", "Delete indicators", "indicator", "delete"},
	{"indicator_data:view", "View indicator data", "indicator_data", "view"},
	{"indicator_data:add", "Create indicator data", "indicator_data", "add"},
	{"indicator_data:edit", "Edit indicator data", "indicator_data", "edit"},
	{"indicator_data:delete", "Delete indicator data", "indicator_data", "delete"},
	{"user:manage", "Manage users and roles", "user", "manage"},
}

// EnsureAdminAndPermissions seeds the superuser role, the permission
// catalog and the default admin account so a fresh database is usable
// immediately. The seed is idempotent.
func EnsureAdminAndPermissions(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := ensureAdminRole(ctx, tx, node)
		if err != nil {
			return err
		}

		permIDs, err := ensurePermissions(ctx, tx, node)
		if err != nil {
			return err
		}

		if err := ensureRoleGrants(ctx, tx, role.ID, permIDs); err != nil {
			return err
		}

		return ensureAdminUser(ctx, tx, node, cfg, role.ID)
	})
}

func ensureAdminRole(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (rbacdomain.Role, error) {
	var role rbacdomain.Role
	err := tx.WithContext(ctx).Where("code = ?", rbacdomain.SuperuserRoleCode).First(&role).Error
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return role, err
	}

	now := time.Now().UTC()
	role = rbacdomain.Role{
		ID:        node.Generate(),
		Code:      rbacdomain.SuperuserRoleCode,
		Name:      "Administrator",
		Status:    rbacdomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&role).Error; err != nil {
		return role, err
	}
	return role, nil
}

func ensurePermissions(ctx context.Context, tx *gorm.DB, node *snowflake.Node) ([]snowflake.ID, error) {
	ids := make([]snowflake.ID, 0, len(basePermissions))
	for _, sp := range basePermissions {
		var perm rbacdomain.Permission
		err := tx.WithContext(ctx).Where("code = ?", sp.Code).First(&perm).Error
		if err == nil {
			ids = append(ids, perm.ID)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		now := time.Now().UTC()
		perm = rbacdomain.Permission{
			ID:        node.Generate(),
			Code:      sp.Code,
			Name:      sp.Name,
			Resource:  sp.Resource,
			Action:    sp.Action,
			Status:    rbacdomain.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&perm).Error; err != nil {
			return nil, err
		}
		ids = append(ids, perm.ID)
	}
	return ids, nil
}

func ensureRoleGrants(ctx context.Context, tx *gorm.DB, roleID snowflake.ID, permIDs []snowflake.ID) error {
	for _, permID := range permIDs {
		err := tx.WithContext(ctx).Exec(
			`INSERT INTO role_permissions (role_id, permission_id)
			 VALUES (?, ?)
			 ON CONFLICT (role_id, permission_id) DO NOTHING`,
			roleID, permID,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureAdminUser(ctx context.Context, tx *gorm.DB, node *snowflake.Node, cfg config.Config, roleID snowflake.ID) error {
	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" {
		username = "admin"
	}

	var user authdomain.User
	err := tx.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := password.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user = authdomain.User{
		ID:           node.Generate(),
		Username:     username,
		PasswordHash: hashed,
		RoleID:       roleID,
		Status:       authdomain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return tx.WithContext(ctx).Create(&user).Error
}
