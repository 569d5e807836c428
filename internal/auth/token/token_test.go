package token

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/statboard/statboard/internal/clock"
)

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func TestIssueAndVerify(t *testing.T) {
	node := mustNode(t)
	issuer := NewIssuer("test-secret", time.Hour, clock.New())

	userID := node.Generate()
	raw, err := issuer.Issue(userID, time.Now().UTC())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := issuer.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != userID {
		t.Fatalf("expected subject %s, got %s", userID, got)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	node := mustNode(t)
	issuer := NewIssuer("test-secret", time.Minute, clock.New())

	raw, err := issuer.Issue(node.Generate(), time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := issuer.Verify(raw); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyReadsInjectedClock(t *testing.T) {
	node := mustNode(t)
	clk := clock.NewFakeClock(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	issuer := NewIssuer("test-secret", time.Hour, clk)

	raw, err := issuer.Issue(node.Generate(), clk.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Decades stale by wall-clock time, still live by the injected clock.
	if _, err := issuer.Verify(raw); err != nil {
		t.Fatalf("verify: %v", err)
	}

	clk.Advance(2 * time.Hour)
	if _, err := issuer.Verify(raw); err == nil {
		t.Fatal("expected token past its TTL to be rejected")
	}
}

func TestVerifyWrongKey(t *testing.T) {
	node := mustNode(t)
	issuer := NewIssuer("one-secret", time.Hour, clock.New())
	other := NewIssuer("other-secret", time.Hour, clock.New())

	raw, err := issuer.Issue(node.Generate(), time.Now().UTC())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := other.Verify(raw); err == nil {
		t.Fatal("expected token signed with a different key to be rejected")
	}
	if _, err := other.Verify(""); err == nil {
		t.Fatal("expected empty token to be rejected")
	}
}
