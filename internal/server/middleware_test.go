package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/statboard/statboard/internal/auth/domain"
	"github.com/statboard/statboard/internal/authorization"
	obsmetrics "github.com/statboard/statboard/internal/observability/metrics"
	"github.com/statboard/statboard/internal/offload"
	"go.uber.org/zap"
)

type stubAuthService struct {
	identity *authdomain.Identity
	err      error
}

func (s *stubAuthService) Login(context.Context, authdomain.LoginRequest) (*authdomain.TokenResponse, error) {
	return nil, authdomain.ErrInvalidCredentials
}

func (s *stubAuthService) Register(context.Context, authdomain.RegisterRequest) (*authdomain.UserResponse, error) {
	return nil, authdomain.ErrUserExists
}

func (s *stubAuthService) Authenticate(context.Context, string) (*authdomain.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func (s *stubAuthService) Me(context.Context, snowflake.ID) (*authdomain.UserResponse, error) {
	return nil, authdomain.ErrNotFound
}

func (s *stubAuthService) ChangePassword(context.Context, snowflake.ID, authdomain.ChangePasswordRequest) error {
	return nil
}

func (s *stubAuthService) UpdateProfile(context.Context, snowflake.ID, authdomain.UpdateProfileRequest) (*authdomain.UserResponse, error) {
	return nil, authdomain.ErrNotFound
}

type stubAuthzService struct {
	allowed map[string]bool
}

func (s *stubAuthzService) Allow(_ context.Context, _, _ snowflake.ID, code string) error {
	if s.allowed[code] {
		return nil
	}
	return authorization.ErrForbidden
}

func (s *stubAuthzService) Permissions(context.Context, snowflake.ID, snowflake.ID) ([]string, error) {
	codes := make([]string, 0, len(s.allowed))
	for code := range s.allowed {
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *stubAuthzService) BumpVersion() {}

func newTestServer(auth *stubAuthService, authz *stubAuthzService) *Server {
	gin.SetMode(gin.TestMode)
	engine := NewEngine(zap.NewNop(), obsmetrics.NewHTTPMetrics())
	return &Server{
		engine:   engine,
		authsvc:  auth,
		authzSvc: authz,
		exports:  offload.NewWithLimit(zap.NewNop(), offload.DefaultLimit),
	}
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	s := newTestServer(&stubAuthService{}, &stubAuthzService{})
	s.engine.GET("/protected", s.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredRejectsBadToken(t *testing.T) {
	s := newTestServer(&stubAuthService{err: authdomain.ErrInvalidCredentials}, &stubAuthzService{})
	s.engine.GET("/protected", s.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredAdmitsValidToken(t *testing.T) {
	identity := &authdomain.Identity{UserID: 7, RoleID: 11}
	s := newTestServer(&stubAuthService{identity: identity}, &stubAuthzService{})

	var seen *authdomain.Identity
	s.engine.GET("/protected", s.AuthRequired(), func(c *gin.Context) {
		seen = s.identity(c)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.UserID != identity.UserID {
		t.Fatalf("identity not propagated: %+v", seen)
	}
}

func TestRequirePermissionDenies(t *testing.T) {
	identity := &authdomain.Identity{UserID: 7, RoleID: 11}
	s := newTestServer(&stubAuthService{identity: identity}, &stubAuthzService{allowed: map[string]bool{PermDataView: true}})

	s.engine.GET("/guarded", s.AuthRequired(), s.RequirePermission(PermDataAdd), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequirePermissionAdmits(t *testing.T) {
	identity := &authdomain.Identity{UserID: 7, RoleID: 11}
	s := newTestServer(&stubAuthService{identity: identity}, &stubAuthzService{allowed: map[string]bool{PermDataAdd: true}})

	s.engine.GET("/guarded", s.AuthRequired(), s.RequirePermission(PermDataAdd), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSelfOrManageAdmitsOwner(t *testing.T) {
	identity := &authdomain.Identity{UserID: 42, RoleID: 11}
	s := newTestServer(&stubAuthService{identity: identity}, &stubAuthzService{})

	s.engine.GET("/accounts/:id", s.AuthRequired(), s.SelfOrManage(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/accounts/"+identity.UserID.String(), nil)
	req.Header.Set("Authorization", "Bearer good-token")
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSelfOrManageRejectsOtherAccount(t *testing.T) {
	identity := &authdomain.Identity{UserID: 42, RoleID: 11}
	s := newTestServer(&stubAuthService{identity: identity}, &stubAuthzService{})

	s.engine.GET("/accounts/:id", s.AuthRequired(), s.SelfOrManage(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/accounts/99", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
