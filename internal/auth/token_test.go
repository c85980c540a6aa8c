package auth

import (
	"testing"
	"time"

	"pixgate/internal/model"
)

var testSecret = []byte("test-secret")

func TestSignAndParseToken(t *testing.T) {
	identity := Identity{
		ID:        "user-1",
		Email:     "user@example.com",
		Name:      "User One",
		Role:      model.RoleSeller,
		SessionID: "sid-1",
	}

	raw, err := SignToken(testSecret, identity, KindDashboard, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parsed, err := ParseToken(testSecret, raw, KindDashboard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.ID != "user-1" || parsed.Email != "user@example.com" || parsed.Role != model.RoleSeller {
		t.Fatalf("unexpected identity: %+v", parsed)
	}
	if parsed.SessionID != "sid-1" {
		t.Fatalf("expected session id sid-1, got %s", parsed.SessionID)
	}
}

func TestParseTokenRejectsWrongKind(t *testing.T) {
	identity := Identity{ID: "admin-1", Role: model.RoleAdmin}

	raw, err := SignToken(testSecret, identity, KindDashboard, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// A dashboard token must never authenticate a backoffice route.
	if _, err := ParseToken(testSecret, raw, KindBackoffice); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for kind mismatch, got %v", err)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	identity := Identity{ID: "user-1", Role: model.RoleUser}

	raw, err := SignToken(testSecret, identity, KindDashboard, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseToken(testSecret, raw, KindDashboard); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	identity := Identity{ID: "user-1", Role: model.RoleUser}

	raw, err := SignToken(testSecret, identity, KindDashboard, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseToken([]byte("other-secret"), raw, KindDashboard); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestCookieNamespacesDistinct(t *testing.T) {
	if KindDashboard.CookieName() == KindBackoffice.CookieName() {
		t.Fatal("dashboard and backoffice cookies must not share a name")
	}
	if KindDashboard.CookieName() != "auth-token" {
		t.Fatalf("unexpected dashboard cookie name: %s", KindDashboard.CookieName())
	}
	if KindBackoffice.CookieName() != "backoffice-auth-token" {
		t.Fatalf("unexpected backoffice cookie name: %s", KindBackoffice.CookieName())
	}
}
