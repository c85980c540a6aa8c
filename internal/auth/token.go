package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pixgate/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Kind separates the two session namespaces. Dashboard/admin sessions and
// backoffice sessions use distinct cookies and distinct token kinds; a token
// of one kind never resolves under the other.
type Kind string

const (
	KindDashboard  Kind = "dashboard"
	KindBackoffice Kind = "backoffice"
)

// CookieName returns the cookie carrying tokens of this kind.
func (k Kind) CookieName() string {
	if k == KindBackoffice {
		return "backoffice-auth-token"
	}
	return "auth-token"
}

// Identity is the resolved caller of a request.
type Identity struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	SessionID string     `json:"-"`
}

// Claims carried by a session token.
type Claims struct {
	Kind  Kind       `json:"kind"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// SignToken issues a signed session token. The jti claim carries the
// server-side session id so the token can be revoked from the cache.
func SignToken(secret []byte, identity Identity, kind Kind, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Kind:  kind,
		Email: identity.Email,
		Name:  identity.Name,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ID:        identity.SessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a token of the expected kind and returns the identity
// it carries. Any failure, including a kind mismatch, yields ErrInvalidToken.
func ParseToken(secret []byte, raw string, kind Kind) (*Identity, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, ErrInvalidToken
	}

	return &Identity{
		ID:        claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Role:      claims.Role,
		SessionID: claims.ID,
	}, nil
}
