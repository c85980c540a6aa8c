package auth

import (
	"context"
	"fmt"
	"net/http"

	"pixgate/internal/util"
)

// SessionChecker answers whether a session id is still live in the
// server-side session cache. Revoked sessions make a valid token useless.
type SessionChecker interface {
	SessionExists(ctx context.Context, kind Kind, sessionID string) (bool, error)
}

// Resolver extracts and validates session tokens from inbound requests.
type Resolver struct {
	secret   []byte
	sessions SessionChecker
}

func NewResolver(secret []byte, sessions SessionChecker) *Resolver {
	return &Resolver{secret: secret, sessions: sessions}
}

// ResolveIdentity reads the cookie for the given kind and returns the
// resolved identity, or nil when the request carries no usable session.
// Absence and invalidity are not errors; only a session-store failure is.
func (r *Resolver) ResolveIdentity(req *http.Request, kind Kind) (*Identity, error) {
	cookie, err := req.Cookie(kind.CookieName())
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	identity, err := ParseToken(r.secret, cookie.Value, kind)
	if err != nil {
		util.Debug("Rejected session token",
			util.String("kind", string(kind)),
			util.ErrorField(err))
		return nil, nil
	}

	if identity.SessionID != "" && r.sessions != nil {
		ok, err := r.sessions.SessionExists(req.Context(), kind, identity.SessionID)
		if err != nil {
			return nil, fmt.Errorf("session lookup: %w", err)
		}
		if !ok {
			return nil, nil
		}
	}

	return identity, nil
}
