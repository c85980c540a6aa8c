package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"pixgate/internal/model"
)

type stubSessions struct {
	exists bool
	err    error
}

func (s *stubSessions) SessionExists(_ context.Context, _ Kind, _ string) (bool, error) {
	return s.exists, s.err
}

func TestResolveIdentityNoCookie(t *testing.T) {
	r := NewResolver(testSecret, &stubSessions{exists: true})

	req := httptest.NewRequest("GET", "/api/pix/balance", nil)
	identity, err := r.ResolveIdentity(req, KindDashboard)
	if err != nil {
		t.Fatalf("absent cookie must not be an error: %v", err)
	}
	if identity != nil {
		t.Fatalf("expected nil identity, got %+v", identity)
	}
}

func TestResolveIdentityInvalidToken(t *testing.T) {
	r := NewResolver(testSecret, &stubSessions{exists: true})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", KindDashboard.CookieName()+"=garbage")

	identity, err := r.ResolveIdentity(req, KindDashboard)
	if err != nil {
		t.Fatalf("invalid token must not be an error: %v", err)
	}
	if identity != nil {
		t.Fatalf("expected nil identity for garbage token")
	}
}

func TestResolveIdentityValid(t *testing.T) {
	r := NewResolver(testSecret, &stubSessions{exists: true})

	token, err := SignToken(testSecret, Identity{ID: "u1", Role: model.RoleUser, SessionID: "s1"}, KindDashboard, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", KindDashboard.CookieName()+"="+token)

	identity, err := r.ResolveIdentity(req, KindDashboard)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity == nil || identity.ID != "u1" {
		t.Fatalf("expected identity u1, got %+v", identity)
	}
}

func TestResolveIdentityRevokedSession(t *testing.T) {
	r := NewResolver(testSecret, &stubSessions{exists: false})

	token, err := SignToken(testSecret, Identity{ID: "u1", Role: model.RoleUser, SessionID: "s1"}, KindDashboard, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", KindDashboard.CookieName()+"="+token)

	identity, err := r.ResolveIdentity(req, KindDashboard)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if identity != nil {
		t.Fatalf("revoked session must resolve to nil identity")
	}
}

func TestAuthorize(t *testing.T) {
	admin := &Identity{ID: "a1", Role: model.RoleAdmin}
	seller := &Identity{ID: "s1", Role: model.RoleSeller}

	if !Authorize(admin, BackofficeRoles...) {
		t.Fatal("admin must pass the backoffice gate")
	}
	if Authorize(seller, BackofficeRoles...) {
		t.Fatal("seller must not pass the backoffice gate")
	}
	if Authorize(nil, BackofficeRoles...) {
		t.Fatal("nil identity must never authorize")
	}
}
