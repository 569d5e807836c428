package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/statboard/statboard/internal/auth/domain"
	"github.com/statboard/statboard/internal/auth/password"
	"github.com/statboard/statboard/internal/auth/repository"
	"github.com/statboard/statboard/internal/auth/token"
	"github.com/statboard/statboard/internal/clock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func setupService(t *testing.T) (*Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		phone TEXT,
		role_id INTEGER,
		status INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`).Error; err != nil {
		t.Fatalf("create users: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	svc := &Service{
		db:     db,
		log:    zap.NewNop(),
		repo:   repository.Provide(),
		genID:  mustNode(t),
		clk:    clk,
		issuer: token.NewIssuer("test-secret", time.Hour, clk),
	}
	return svc, db, clk
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, authdomain.RegisterRequest{
		Username: "alice",
		Password: "passw0rd1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("expected username alice, got %s", user.Username)
	}

	resp, err := svc.Login(ctx, authdomain.LoginRequest{Account: "alice", Password: "passw0rd1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a signed token")
	}

	identity, err := svc.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.UserID.String() != user.ID {
		t.Fatalf("expected identity %s, got %s", user.ID, identity.UserID)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	svc, _, clk := setupService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, authdomain.RegisterRequest{Username: "gail", Password: "passw0rd1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	resp, err := svc.Login(ctx, authdomain.LoginRequest{Account: "gail", Password: "passw0rd1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.Authenticate(ctx, resp.Token); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	clk.Advance(2 * time.Hour)
	if _, err := svc.Authenticate(ctx, resp.Token); err != authdomain.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials after expiry, got %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	for _, pw := range []string{"short1", "alllettersonly", "1234567890"} {
		if _, err := svc.Register(ctx, authdomain.RegisterRequest{Username: "bob", Password: pw}); err != authdomain.ErrWeakPassword {
			t.Fatalf("password %q: expected weak password error, got %v", pw, err)
		}
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, authdomain.RegisterRequest{Username: "carol", Password: "passw0rd1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, authdomain.RegisterRequest{Username: "carol", Password: "passw0rd2"}); err != authdomain.ErrUserExists {
		t.Fatalf("expected user exists error, got %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, authdomain.RegisterRequest{Username: "dave", Password: "passw0rd1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := db.Exec(`UPDATE users SET status = 0 WHERE id = ?`, user.ID).Error; err != nil {
		t.Fatalf("disable user: %v", err)
	}

	if _, err := svc.Login(ctx, authdomain.LoginRequest{Account: "dave", Password: "passw0rd1"}); err != authdomain.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials for disabled account, got %v", err)
	}
}

func TestLoginByPhone(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	phone := "13800000000"
	if _, err := svc.Register(ctx, authdomain.RegisterRequest{Username: "erin", Password: "passw0rd1", Phone: &phone}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, authdomain.LoginRequest{Account: phone, Password: "passw0rd1"}); err != nil {
		t.Fatalf("login by phone: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, authdomain.RegisterRequest{Username: "frank", Password: "passw0rd1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	userID, err := snowflake.ParseString(user.ID)
	if err != nil {
		t.Fatalf("parse id: %v", err)
	}

	if err := svc.ChangePassword(ctx, userID, authdomain.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "newpass99",
	}); err != authdomain.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials for wrong old password, got %v", err)
	}

	if err := svc.ChangePassword(ctx, userID, authdomain.ChangePasswordRequest{
		OldPassword: "passw0rd1",
		NewPassword: "newpass99",
	}); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := svc.Login(ctx, authdomain.LoginRequest{Account: "frank", Password: "newpass99"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hashed, err := password.Hash("roundtrip1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !password.Verify("roundtrip1", hashed) {
		t.Fatal("expected hash to verify")
	}
}
