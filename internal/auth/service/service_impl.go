package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/statboard/statboard/internal/auth/domain"
	"github.com/statboard/statboard/internal/auth/password"
	"github.com/statboard/statboard/internal/auth/token"
	"github.com/statboard/statboard/internal/clock"
	"github.com/statboard/statboard/internal/config"
	pkgdb "github.com/statboard/statboard/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  authdomain.Repository
	Clock clock.Clock
	Cfg   config.Config
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	repo   authdomain.Repository
	genID  *snowflake.Node
	clk    clock.Clock
	issuer *token.Issuer
}

func New(p Params) authdomain.Service {
	ttl := time.Duration(p.Cfg.AuthTokenTTLMin) * time.Minute
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("auth.service"),
		repo:   p.Repo,
		genID:  p.GenID,
		clk:    p.Clock,
		issuer: token.NewIssuer(p.Cfg.AuthJWTSecret, ttl, p.Clock),
	}
}

func (s *Service) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.TokenResponse, error) {
	account := strings.TrimSpace(req.Account)
	if account == "" || req.Password == "" {
		return nil, authdomain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByAccount(ctx, s.db, account)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != authdomain.StatusActive {
		return nil, authdomain.ErrInvalidCredentials
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		return nil, authdomain.ErrInvalidCredentials
	}

	raw, err := s.issuer.Issue(user.ID, s.clk.Now())
	if err != nil {
		return nil, err
	}

	return &authdomain.TokenResponse{
		Token:     raw,
		ExpiresIn: int64(s.issuer.TTL().Seconds()),
		User:      *toUserResponse(user),
	}, nil
}

func (s *Service) Register(ctx context.Context, req authdomain.RegisterRequest) (*authdomain.UserResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, authdomain.ErrInvalidUsername
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	user := &authdomain.User{
		ID:           s.genID.Generate(),
		Username:     username,
		PasswordHash: hashed,
		Phone:        trimPhone(req.Phone),
		Status:       authdomain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, user); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, authdomain.ErrUserExists
		}
		return nil, err
	}

	return toUserResponse(user), nil
}

func (s *Service) Authenticate(ctx context.Context, raw string) (*authdomain.Identity, error) {
	userID, err := s.issuer.Verify(raw)
	if err != nil {
		return nil, authdomain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != authdomain.StatusActive {
		return nil, authdomain.ErrInvalidCredentials
	}

	return &authdomain.Identity{UserID: user.ID, RoleID: user.RoleID}, nil
}

func (s *Service) Me(ctx context.Context, userID snowflake.ID) (*authdomain.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrNotFound
	}
	return toUserResponse(user), nil
}

func (s *Service) ChangePassword(ctx context.Context, userID snowflake.ID, req authdomain.ChangePasswordRequest) error {
	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return authdomain.ErrNotFound
	}

	if !password.Verify(req.OldPassword, user.PasswordHash) {
		return authdomain.ErrInvalidCredentials
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	hashed, err := password.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hashed
	user.UpdatedAt = s.clk.Now()
	return s.repo.Update(ctx, s.db, user)
}

func (s *Service) UpdateProfile(ctx context.Context, userID snowflake.ID, req authdomain.UpdateProfileRequest) (*authdomain.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrNotFound
	}

	if req.Phone != nil {
		user.Phone = trimPhone(req.Phone)
	}

	user.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, s.db, user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// validatePassword enforces the minimum credential policy: at least 8
// characters containing both letters and digits.
func validatePassword(pw string) error {
	if len(pw) < 8 {
		return authdomain.ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return authdomain.ErrWeakPassword
	}
	return nil
}

func trimPhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*phone)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toUserResponse(u *authdomain.User) *authdomain.UserResponse {
	resp := &authdomain.UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Phone:     u.Phone,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.RoleID != 0 {
		resp.RoleID = u.RoleID.String()
	}
	return resp
}
