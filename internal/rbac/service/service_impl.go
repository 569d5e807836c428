package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/statboard/statboard/internal/authorization"
	rbacdomain "github.com/statboard/statboard/internal/rbac/domain"
	"github.com/statboard/statboard/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  rbacdomain.Repository
	Authz authorization.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  rbacdomain.Repository
	genID *snowflake.Node
	authz authorization.Service
}

func New(p Params) rbacdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("rbac.service"),
		repo:  p.Repo,
		genID: p.GenID,
		authz: p.Authz,
	}
}

func (s *Service) ListRoles(ctx context.Context) ([]rbacdomain.RoleResponse, error) {
	items, err := s.repo.ListRoles(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := make([]rbacdomain.RoleResponse, 0, len(items))
	for i := range items {
		resp = append(resp, *toRoleResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) CreateRole(ctx context.Context, req rbacdomain.CreateRoleRequest) (*rbacdomain.RoleResponse, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, rbacdomain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, rbacdomain.ErrInvalidName
	}

	status := rbacdomain.StatusActive
	if req.Status != nil {
		status = *req.Status
	}

	now := time.Now().UTC()
	role := &rbacdomain.Role{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertRole(ctx, s.db, role); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, rbacdomain.ErrDuplicate
		}
		return nil, err
	}

	s.authz.BumpVersion()
	return toRoleResponse(role), nil
}

func (s *Service) UpdateRole(ctx context.Context, req rbacdomain.UpdateRoleRequest) (*rbacdomain.RoleResponse, error) {
	roleID, err := rbacdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, rbacdomain.ErrInvalidID
	}

	role, err := s.repo.FindRoleByID(ctx, s.db, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, rbacdomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, rbacdomain.ErrInvalidName
		}
		role.Name = name
	}
	if req.Status != nil {
		role.Status = *req.Status
	}

	role.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateRole(ctx, s.db, role); err != nil {
		return nil, err
	}

	s.authz.BumpVersion()
	return toRoleResponse(role), nil
}

func (s *Service) DeleteRole(ctx context.Context, id string) error {
	roleID, err := rbacdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return rbacdomain.ErrInvalidID
	}

	role, err := s.repo.FindRoleByID(ctx, s.db, roleID)
	if err != nil {
		return err
	}
	if role == nil {
		return rbacdomain.ErrNotFound
	}

	if err := s.repo.DeleteRole(ctx, s.db, roleID); err != nil {
		return err
	}

	s.authz.BumpVersion()
	return nil
}

func (s *Service) ListPermissions(ctx context.Context, req rbacdomain.ListPermissionsRequest) ([]rbacdomain.PermissionResponse, error) {
	filter := rbacdomain.PermissionFilter{
		Query:    strings.TrimSpace(req.Query),
		Resource: strings.TrimSpace(req.Resource),
		Action:   strings.TrimSpace(req.Action),
		Status:   req.Status,
	}

	if roleRaw := strings.TrimSpace(req.RoleID); roleRaw != "" {
		roleID, err := rbacdomain.ParseID(roleRaw)
		if err != nil {
			return nil, rbacdomain.ErrInvalidID
		}
		filter.RoleID = &roleID
	}

	items, err := s.repo.ListPermissions(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]rbacdomain.PermissionResponse, 0, len(items))
	for i := range items {
		resp = append(resp, *toPermissionResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) CreatePermission(ctx context.Context, req rbacdomain.CreatePermissionRequest) (*rbacdomain.PermissionResponse, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, rbacdomain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, rbacdomain.ErrInvalidName
	}

	status := rbacdomain.StatusActive
	if req.Status != nil {
		status = *req.Status
	}

	now := time.Now().UTC()
	perm := &rbacdomain.Permission{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		Resource:  strings.TrimSpace(req.Resource),
		Action:    strings.TrimSpace(req.Action),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertPermission(ctx, s.db, perm); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, rbacdomain.ErrDuplicate
		}
		return nil, err
	}

	s.authz.BumpVersion()
	return toPermissionResponse(perm), nil
}

func (s *Service) UpdatePermission(ctx context.Context, req rbacdomain.UpdatePermissionRequest) (*rbacdomain.PermissionResponse, error) {
	permID, err := rbacdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, rbacdomain.ErrInvalidID
	}

	perm, err := s.repo.FindPermissionByID(ctx, s.db, permID)
	if err != nil {
		return nil, err
	}
	if perm == nil {
		return nil, rbacdomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, rbacdomain.ErrInvalidName
		}
		perm.Name = name
	}
	if req.Resource != nil {
		perm.Resource = strings.TrimSpace(*req.Resource)
	}
	if req.Action != nil {
		perm.Action = strings.TrimSpace(*req.Action)
	}
	if req.Status != nil {
		perm.Status = *req.Status
	}

	perm.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdatePermission(ctx, s.db, perm); err != nil {
		return nil, err
	}

	s.authz.BumpVersion()
	return toPermissionResponse(perm), nil
}

func (s *Service) DeletePermission(ctx context.Context, id string) error {
	permID, err := rbacdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return rbacdomain.ErrInvalidID
	}

	perm, err := s.repo.FindPermissionByID(ctx, s.db, permID)
	if err != nil {
		return err
	}
	if perm == nil {
		return rbacdomain.ErrNotFound
	}

	if err := s.repo.DeletePermission(ctx, s.db, permID); err != nil {
		return err
	}

	s.authz.BumpVersion()
	return nil
}

func (s *Service) GetRolePermissions(ctx context.Context, roleID string) ([]rbacdomain.PermissionResponse, error) {
	id, err := rbacdomain.ParseID(strings.TrimSpace(roleID))
	if err != nil {
		return nil, rbacdomain.ErrInvalidID
	}

	role, err := s.repo.FindRoleByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, rbacdomain.ErrNotFound
	}

	items, err := s.repo.ListRolePermissions(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	resp := make([]rbacdomain.PermissionResponse, 0, len(items))
	for i := range items {
		resp = append(resp, *toPermissionResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) AssignRolePermissions(ctx context.Context, req rbacdomain.AssignRequest) error {
	roleID, err := rbacdomain.ParseID(strings.TrimSpace(req.RoleID))
	if err != nil {
		return rbacdomain.ErrInvalidID
	}

	role, err := s.repo.FindRoleByID(ctx, s.db, roleID)
	if err != nil {
		return err
	}
	if role == nil {
		return rbacdomain.ErrNotFound
	}

	permIDs := make([]snowflake.ID, 0, len(req.PermissionIDs))
	for _, raw := range req.PermissionIDs {
		permID, err := rbacdomain.ParseID(strings.TrimSpace(raw))
		if err != nil {
			return rbacdomain.ErrInvalidID
		}
		perm, err := s.repo.FindPermissionByID(ctx, s.db, permID)
		if err != nil {
			return err
		}
		if perm == nil {
			return rbacdomain.ErrNotFound
		}
		permIDs = append(permIDs, permID)
	}

	if err := s.repo.ReplaceRolePermissions(ctx, s.db, roleID, permIDs); err != nil {
		return err
	}

	s.authz.BumpVersion()
	return nil
}

func (s *Service) RevokeRolePermission(ctx context.Context, roleID, permissionID string) error {
	rid, err := rbacdomain.ParseID(strings.TrimSpace(roleID))
	if err != nil {
		return rbacdomain.ErrInvalidID
	}
	pid, err := rbacdomain.ParseID(strings.TrimSpace(permissionID))
	if err != nil {
		return rbacdomain.ErrInvalidID
	}

	if err := s.repo.RevokeRolePermission(ctx, s.db, rid, pid); err != nil {
		return err
	}

	s.authz.BumpVersion()
	return nil
}

func toRoleResponse(r *rbacdomain.Role) *rbacdomain.RoleResponse {
	return &rbacdomain.RoleResponse{
		ID:        r.ID.String(),
		Code:      r.Code,
		Name:      r.Name,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toPermissionResponse(p *rbacdomain.Permission) *rbacdomain.PermissionResponse {
	return &rbacdomain.PermissionResponse{
		ID:        p.ID.String(),
		Code:      p.Code,
		Name:      p.Name,
		Resource:  p.Resource,
		Action:    p.Action,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
