package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/statboard/statboard/internal/auth/domain"
	"github.com/statboard/statboard/internal/auth/password"
	"github.com/statboard/statboard/internal/authorization"
	"github.com/statboard/statboard/internal/clock"
	userdomain "github.com/statboard/statboard/internal/user/domain"
	pkgdb "github.com/statboard/statboard/pkg/db"
	"github.com/statboard/statboard/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     userdomain.Repository
	AuthRepo authdomain.Repository
	Clock    clock.Clock
	Authz    authorization.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     userdomain.Repository
	authRepo authdomain.Repository
	genID    *snowflake.Node
	clk      clock.Clock
	authz    authorization.Service
}

func New(p Params) userdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("user.service"),
		repo:     p.Repo,
		authRepo: p.AuthRepo,
		genID:    p.GenID,
		clk:      p.Clock,
		authz:    p.Authz,
	}
}

func (s *Service) List(ctx context.Context, req userdomain.ListRequest) (*pagination.Page[userdomain.Response], error) {
	filter := userdomain.Filter{
		Query:  strings.TrimSpace(req.Query),
		Status: req.Status,
	}

	if roleRaw := strings.TrimSpace(req.RoleID); roleRaw != "" {
		roleID, err := snowflake.ParseString(roleRaw)
		if err != nil {
			return nil, userdomain.ErrInvalidID
		}
		filter.RoleID = &roleID
	}

	page := req.Page.Normalize(1000)
	rows, total, err := s.repo.List(ctx, s.db, filter, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}

	resp := make([]userdomain.Response, 0, len(rows))
	for i := range rows {
		resp = append(resp, *toResponse(&rows[i]))
	}

	result := pagination.NewPage(resp, total, page)
	return &result, nil
}

func (s *Service) Get(ctx context.Context, id string) (*userdomain.Response, error) {
	userID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, userdomain.ErrInvalidID
	}

	row, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, userdomain.ErrNotFound
	}
	return toResponse(row), nil
}

func (s *Service) Create(ctx context.Context, req userdomain.CreateRequest) (*userdomain.Response, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, userdomain.ErrInvalidUsername
	}

	pw := req.Password
	if pw == "" {
		pw = userdomain.DefaultPassword
	}
	hashed, err := password.Hash(pw)
	if err != nil {
		return nil, err
	}

	var roleID snowflake.ID
	if roleRaw := strings.TrimSpace(req.RoleID); roleRaw != "" {
		roleID, err = snowflake.ParseString(roleRaw)
		if err != nil {
			return nil, userdomain.ErrInvalidID
		}
	}

	status := authdomain.StatusActive
	if req.Status != nil {
		status = *req.Status
	}

	now := s.clk.Now()
	user := &authdomain.User{
		ID:           s.genID.Generate(),
		Username:     username,
		PasswordHash: hashed,
		Phone:        trimPtr(req.Phone),
		RoleID:       roleID,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.authRepo.Insert(ctx, s.db, user); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, userdomain.ErrUserExists
		}
		return nil, err
	}

	row, err := s.repo.FindByID(ctx, s.db, user.ID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, userdomain.ErrNotFound
	}
	return toResponse(row), nil
}

func (s *Service) Update(ctx context.Context, req userdomain.UpdateRequest) (*userdomain.Response, error) {
	userID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, userdomain.ErrInvalidID
	}

	user, err := s.authRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userdomain.ErrNotFound
	}

	roleChanged := false

	if req.Password != nil && *req.Password != "" {
		hashed, err := password.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}
	if req.Phone != nil {
		user.Phone = trimPtr(req.Phone)
	}
	if req.RoleID != nil {
		var roleID snowflake.ID
		if roleRaw := strings.TrimSpace(*req.RoleID); roleRaw != "" {
			roleID, err = snowflake.ParseString(roleRaw)
			if err != nil {
				return nil, userdomain.ErrInvalidID
			}
		}
		if roleID != user.RoleID {
			user.RoleID = roleID
			roleChanged = true
		}
	}
	if req.Status != nil {
		user.Status = *req.Status
	}

	user.UpdatedAt = s.clk.Now()
	if err := s.authRepo.Update(ctx, s.db, user); err != nil {
		return nil, err
	}

	// A role change must invalidate cached permission sets immediately.
	if roleChanged {
		s.authz.BumpVersion()
	}

	row, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, userdomain.ErrNotFound
	}
	return toResponse(row), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	userID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return userdomain.ErrInvalidID
	}

	row, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if row == nil {
		return userdomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, userID)
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toResponse(row *userdomain.Row) *userdomain.Response {
	resp := &userdomain.Response{
		ID:        row.ID.String(),
		Username:  row.Username,
		Phone:     row.Phone,
		RoleName:  row.RoleName,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.RoleID != 0 {
		resp.RoleID = row.RoleID.String()
	}
	return resp
}
