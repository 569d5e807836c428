package authorization

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/statboard/statboard/internal/clock"
	"github.com/statboard/statboard/internal/config"
	rbacdomain "github.com/statboard/statboard/internal/rbac/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrForbidden = errors.New("forbidden")
)

// Service answers permission checks for authenticated users. Resolved
// permission sets are cached per user with a TTL and a global version
// stamp; bumping the version invalidates every cached entry at once
// without walking the map.
type Service interface {
	Allow(ctx context.Context, userID, roleID snowflake.ID, code string) error
	Permissions(ctx context.Context, userID, roleID snowflake.ID) ([]string, error)
	BumpVersion()
}

// Resolver loads role facts from storage on cache misses.
type Resolver interface {
	RoleCode(ctx context.Context, roleID snowflake.ID) (string, error)
	PermissionCodes(ctx context.Context, roleID snowflake.ID) ([]string, error)
}

type dbResolver struct {
	db *gorm.DB
}

func NewDBResolver(db *gorm.DB) Resolver {
	return &dbResolver{db: db}
}

func (r *dbResolver) RoleCode(ctx context.Context, roleID snowflake.ID) (string, error) {
	var code string
	err := r.db.WithContext(ctx).Raw(
		`SELECT code FROM roles WHERE id = ? AND status = 1`, roleID,
	).Scan(&code).Error
	if err != nil {
		return "", err
	}
	return code, nil
}

func (r *dbResolver) PermissionCodes(ctx context.Context, roleID snowflake.ID) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Raw(
		`SELECT p.code
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = ? AND p.status = 1`,
		roleID,
	).Scan(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

type entry struct {
	codes     map[string]struct{}
	superuser bool
	expiresAt time.Time
	version   uint64
}

type service struct {
	resolver Resolver
	clk      clock.Clock
	log      *zap.Logger
	ttl      time.Duration

	mu      sync.Mutex
	cache   map[snowflake.ID]entry
	version atomic.Uint64
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Cfg   config.Config
}

func New(p Params) Service {
	ttl := time.Duration(p.Cfg.PermissionCacheTTLSec) * time.Second
	return newService(NewDBResolver(p.DB), p.Clock, p.Log, ttl)
}

func newService(resolver Resolver, clk clock.Clock, log *zap.Logger, ttl time.Duration) *service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s := &service{
		resolver: resolver,
		clk:      clk,
		log:      log.Named("authorization.service"),
		ttl:      ttl,
		cache:    make(map[snowflake.ID]entry),
	}
	s.version.Store(1)
	return s
}

func (s *service) Allow(ctx context.Context, userID, roleID snowflake.ID, code string) error {
	e, err := s.resolve(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if e.superuser {
		return nil
	}
	if _, ok := e.codes[code]; ok {
		return nil
	}
	return ErrForbidden
}

func (s *service) Permissions(ctx context.Context, userID, roleID snowflake.ID) ([]string, error) {
	e, err := s.resolve(ctx, userID, roleID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(e.codes))
	for code := range e.codes {
		out = append(out, code)
	}
	return out, nil
}

// BumpVersion invalidates all cached permission sets. Callers invoke it
// after any role, permission or assignment mutation.
func (s *service) BumpVersion() {
	s.version.Add(1)
}

func (s *service) resolve(ctx context.Context, userID, roleID snowflake.ID) (entry, error) {
	now := s.clk.Now()
	version := s.version.Load()

	s.mu.Lock()
	cached, ok := s.cache[userID]
	s.mu.Unlock()
	if ok && cached.expiresAt.After(now) && cached.version == version {
		return cached, nil
	}

	if roleID == 0 {
		e := entry{codes: map[string]struct{}{}, expiresAt: now.Add(s.ttl), version: version}
		s.store(userID, e)
		return e, nil
	}

	roleCode, err := s.resolver.RoleCode(ctx, roleID)
	if err != nil {
		return entry{}, err
	}

	e := entry{
		codes:     make(map[string]struct{}),
		superuser: roleCode == rbacdomain.SuperuserRoleCode,
		expiresAt: now.Add(s.ttl),
		version:   version,
	}

	if !e.superuser {
		codes, err := s.resolver.PermissionCodes(ctx, roleID)
		if err != nil {
			return entry{}, err
		}
		for _, code := range codes {
			e.codes[code] = struct{}{}
		}
	}

	s.store(userID, e)
	return e, nil
}

func (s *service) store(userID snowflake.ID, e entry) {
	s.mu.Lock()
	s.cache[userID] = e
	s.mu.Unlock()
}
