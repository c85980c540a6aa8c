package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pixgate/internal/auth"
	"pixgate/internal/config"
	"pixgate/internal/events"
	"pixgate/internal/hashing"
	"pixgate/internal/model"
	redisrepo "pixgate/internal/repository/redis"
	"pixgate/internal/repository/scylla"
	"pixgate/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotApproved = errors.New("account not approved")
	ErrNotBackofficeRole  = errors.New("role not allowed in backoffice")
)

// SessionStore is the session-cache surface the services need. Implemented
// by the Redis session cache; stubbed in tests.
type SessionStore interface {
	auth.SessionChecker
	CreateSession(ctx context.Context, kind auth.Kind, identity *auth.Identity, ttl time.Duration) (string, error)
	DeleteSession(ctx context.Context, kind auth.Kind, sessionID string) error
}

var _ SessionStore = (*redisrepo.SessionCache)(nil)

// AuthService handles login and logout for both session namespaces.
type AuthService struct {
	users     scylla.UserRepository
	sessions  SessionStore
	hasher    *hashing.Hasher
	publisher *events.Publisher
	session   config.SessionConfig
}

func NewAuthService(
	users scylla.UserRepository,
	sessions SessionStore,
	hasher *hashing.Hasher,
	publisher *events.Publisher,
	session config.SessionConfig,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		hasher:    hasher,
		publisher: publisher,
		session:   session,
	}
}

// LoginResult carries the signed token and resolved identity of a new session.
type LoginResult struct {
	Token    string
	TTL      time.Duration
	Identity auth.Identity
}

// Login verifies credentials and opens a session of the requested kind.
// Backoffice logins additionally require a backoffice role.
func (s *AuthService) Login(ctx context.Context, kind auth.Kind, email, password, ip string) (*LoginResult, error) {
	email = util.NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, scylla.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login lookup: %w", err)
	}

	ok, err := s.hasher.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		util.Warn("Login rejected, bad credentials",
			util.String("email", email),
			util.String("ip", ip))
		return nil, ErrInvalidCredentials
	}

	if user.Status != model.StatusApproved {
		return nil, ErrAccountNotApproved
	}

	identity := auth.Identity{
		ID:    user.UserID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}

	ttl := s.session.DashboardTTL
	if kind == auth.KindBackoffice {
		if !auth.Authorize(&identity, auth.BackofficeRoles...) {
			return nil, ErrNotBackofficeRole
		}
		ttl = s.session.BackofficeTTL
	}

	sessionID, err := s.sessions.CreateSession(ctx, kind, &identity, ttl)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	identity.SessionID = sessionID

	token, err := auth.SignToken([]byte(s.session.Secret), identity, kind, ttl)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.UserID, ip); err != nil {
		// Login still succeeds when the bookkeeping write fails.
		util.Warn("Failed to record last login",
			util.String("user_id", user.UserID),
			util.ErrorField(err))
	}

	s.publisher.Publish(ctx, events.TypeUserLogin, user.UserID, events.SecurityEvent{
		UserID:    user.UserID,
		SessionID: sessionID,
		IP:        ip,
	})

	util.Info("User logged in",
		util.String("user_id", user.UserID),
		util.String("kind", string(kind)),
		util.String("role", string(user.Role)))

	return &LoginResult{Token: token, TTL: ttl, Identity: identity}, nil
}

// Logout revokes the server-side session. Revoking an already-gone session
// is not an error.
func (s *AuthService) Logout(ctx context.Context, kind auth.Kind, identity *auth.Identity) error {
	if identity == nil || identity.SessionID == "" {
		return nil
	}

	if err := s.sessions.DeleteSession(ctx, kind, identity.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.publisher.Publish(ctx, events.TypeUserLogout, identity.ID, events.SecurityEvent{
		UserID:    identity.ID,
		SessionID: identity.SessionID,
	})
	return nil
}
