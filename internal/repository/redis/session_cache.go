package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pixgate/internal/auth"
	"pixgate/internal/client"
	"pixgate/internal/util"
)

// Separate key prefixes keep the two session namespaces apart in the cache
// just as the two cookie names do on the wire.
const (
	dashboardSessionPrefix  = "session:dashboard:"
	backofficeSessionPrefix = "session:backoffice:"
)

// SessionCache stores server-side session state so tokens can be revoked
// before their signed expiry.
type SessionCache struct {
	client *client.RedisClient
}

func NewSessionCache(client *client.RedisClient) *SessionCache {
	return &SessionCache{client: client}
}

func sessionKey(kind auth.Kind, sessionID string) string {
	if kind == auth.KindBackoffice {
		return backofficeSessionPrefix + sessionID
	}
	return dashboardSessionPrefix + sessionID
}

// CreateSession stores a new session and returns its id.
func (c *SessionCache) CreateSession(ctx context.Context, kind auth.Kind, identity *auth.Identity, ttl time.Duration) (string, error) {
	sessionID := uuid.New().String()

	data, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session identity: %w", err)
	}

	if err := c.client.Set(ctx, sessionKey(kind, sessionID), string(data), ttl); err != nil {
		util.Error("Failed to create session",
			util.String("kind", string(kind)),
			util.ErrorField(err))
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	util.Debug("Session created",
		util.String("kind", string(kind)),
		util.String("session_id", sessionID),
		util.Duration("ttl", ttl))
	return sessionID, nil
}

// SessionExists implements auth.SessionChecker.
func (c *SessionCache) SessionExists(ctx context.Context, kind auth.Kind, sessionID string) (bool, error) {
	exists, err := c.client.Exists(ctx, sessionKey(kind, sessionID))
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return exists, nil
}

// GetSession returns the identity stored for a session id, or nil when the
// session is gone.
func (c *SessionCache) GetSession(ctx context.Context, kind auth.Kind, sessionID string) (*auth.Identity, error) {
	raw, err := c.client.Get(ctx, sessionKey(kind, sessionID))
	if err != nil {
		if errors.Is(err, client.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	identity := &auth.Identity{}
	if err := json.Unmarshal([]byte(raw), identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session identity: %w", err)
	}
	identity.SessionID = sessionID
	return identity, nil
}

// DeleteSession revokes one session. Deleting an absent session is a no-op.
func (c *SessionCache) DeleteSession(ctx context.Context, kind auth.Kind, sessionID string) error {
	if err := c.client.Del(ctx, sessionKey(kind, sessionID)); err != nil {
		util.Error("Failed to delete session",
			util.String("kind", string(kind)),
			util.String("session_id", sessionID),
			util.ErrorField(err))
		return fmt.Errorf("failed to delete session: %w", err)
	}

	util.Info("Session invalidated",
		util.String("kind", string(kind)),
		util.String("session_id", sessionID))
	return nil
}
