package authorization

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/statboard/statboard/internal/clock"
	"go.uber.org/zap"
)

type resolverStub struct {
	mu        sync.Mutex
	roleCalls int
	permCalls int
	roleCode  string
	codes     []string
}

func (r *resolverStub) RoleCode(ctx context.Context, roleID snowflake.ID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roleCalls++
	return r.roleCode, nil
}

func (r *resolverStub) PermissionCodes(ctx context.Context, roleID snowflake.ID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.permCalls++
	return r.codes, nil
}

func (r *resolverStub) calls() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roleCalls, r.permCalls
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func TestAllowSuperuserBypass(t *testing.T) {
	node := mustNode(t)
	resolver := &resolverStub{roleCode: "admin"}
	clk := clock.NewFakeClock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	svc := newService(resolver, clk, zap.NewNop(), 5*time.Minute)

	if err := svc.Allow(context.Background(), node.Generate(), node.Generate(), "anything:at_all"); err != nil {
		t.Fatalf("expected superuser to pass, got %v", err)
	}

	if _, permCalls := resolver.calls(); permCalls != 0 {
		t.Fatalf("expected no permission fetch for superuser, got %d", permCalls)
	}
}

func TestAllowUsesCacheWithinTTL(t *testing.T) {
	node := mustNode(t)
	resolver := &resolverStub{roleCode: "viewer", codes: []string{"indicator_data:view"}}
	clk := clock.NewFakeClock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	svc := newService(resolver, clk, zap.NewNop(), 5*time.Minute)

	userID := node.Generate()
	roleID := node.Generate()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.Allow(ctx, userID, roleID, "indicator_data:view"); err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
	}

	if roleCalls, _ := resolver.calls(); roleCalls != 1 {
		t.Fatalf("expected single resolver fetch within TTL, got %d", roleCalls)
	}

	if err := svc.Allow(ctx, userID, roleID, "indicator_data:delete"); err != ErrForbidden {
		t.Fatalf("expected forbidden for missing code, got %v", err)
	}
}

func TestAllowRefetchesAfterTTL(t *testing.T) {
	node := mustNode(t)
	resolver := &resolverStub{roleCode: "viewer", codes: []string{"indicator_data:view"}}
	clk := clock.NewFakeClock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	svc := newService(resolver, clk, zap.NewNop(), 5*time.Minute)

	userID := node.Generate()
	roleID := node.Generate()
	ctx := context.Background()

	if err := svc.Allow(ctx, userID, roleID, "indicator_data:view"); err != nil {
		t.Fatalf("allow: %v", err)
	}

	clk.Advance(5*time.Minute + time.Second)

	if err := svc.Allow(ctx, userID, roleID, "indicator_data:view"); err != nil {
		t.Fatalf("allow after ttl: %v", err)
	}

	if roleCalls, _ := resolver.calls(); roleCalls != 2 {
		t.Fatalf("expected refetch after TTL, got %d fetches", roleCalls)
	}
}

func TestBumpVersionInvalidatesBeforeTTL(t *testing.T) {
	node := mustNode(t)
	resolver := &resolverStub{roleCode: "viewer", codes: []string{"indicator_data:view"}}
	clk := clock.NewFakeClock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	svc := newService(resolver, clk, zap.NewNop(), 5*time.Minute)

	userID := node.Generate()
	roleID := node.Generate()
	ctx := context.Background()

	if err := svc.Allow(ctx, userID, roleID, "indicator_data:view"); err != nil {
		t.Fatalf("allow: %v", err)
	}

	resolver.mu.Lock()
	resolver.codes = []string{"indicator_data:view", "indicator_data:edit"}
	resolver.mu.Unlock()

	if err := svc.Allow(ctx, userID, roleID, "indicator_data:edit"); err != ErrForbidden {
		t.Fatalf("expected stale cache to deny new code, got %v", err)
	}

	svc.BumpVersion()

	if err := svc.Allow(ctx, userID, roleID, "indicator_data:edit"); err != nil {
		t.Fatalf("expected refreshed grant after bump, got %v", err)
	}
}

func TestPermissionsEmptyRole(t *testing.T) {
	node := mustNode(t)
	resolver := &resolverStub{}
	clk := clock.NewFakeClock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	svc := newService(resolver, clk, zap.NewNop(), 5*time.Minute)

	codes, err := svc.Permissions(context.Background(), node.Generate(), 0)
	if err != nil {
		t.Fatalf("permissions: %v", err)
	}
	if len(codes) != 0 {
		t.Fatalf("expected no permissions for user without role, got %v", codes)
	}

	if roleCalls, _ := resolver.calls(); roleCalls != 0 {
		t.Fatalf("expected no role fetch for zero role, got %d", roleCalls)
	}
}
