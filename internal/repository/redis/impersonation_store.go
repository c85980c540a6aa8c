package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"pixgate/internal/client"
	"pixgate/internal/model"
	"pixgate/internal/util"
)

const impersonationPrefix = "impersonation:"

// ErrImpersonationNotFound is returned when no record exists for a token.
var ErrImpersonationNotFound = errors.New("impersonation session not found")

// ImpersonationStore keeps impersonation session records in Redis. Records
// are written with a retention TTL longer than the session lifetime so an
// ended or expired session stays readable and can be told apart from a token
// that never existed.
type ImpersonationStore struct {
	client    *client.RedisClient
	retention time.Duration
}

func NewImpersonationStore(client *client.RedisClient, retention time.Duration) *ImpersonationStore {
	return &ImpersonationStore{
		client:    client,
		retention: retention,
	}
}

func impersonationKey(token string) string {
	return impersonationPrefix + token
}

// Save writes a new impersonation session record.
func (s *ImpersonationStore) Save(ctx context.Context, session *model.ImpersonationSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal impersonation session: %w", err)
	}

	if err := s.client.Set(ctx, impersonationKey(session.Token), string(data), s.retention); err != nil {
		util.Error("Failed to save impersonation session",
			util.String("token", session.Token),
			util.ErrorField(err))
		return fmt.Errorf("failed to save impersonation session: %w", err)
	}
	return nil
}

// Get loads the record for a token.
func (s *ImpersonationStore) Get(ctx context.Context, token string) (*model.ImpersonationSession, error) {
	raw, err := s.client.Get(ctx, impersonationKey(token))
	if err != nil {
		if errors.Is(err, client.ErrKeyNotFound) {
			return nil, ErrImpersonationNotFound
		}
		return nil, fmt.Errorf("failed to get impersonation session: %w", err)
	}

	session := &model.ImpersonationSession{}
	if err := json.Unmarshal([]byte(raw), session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal impersonation session: %w", err)
	}
	return session, nil
}

// Update rewrites an existing record in place, keeping the remaining
// retention TTL.
func (s *ImpersonationStore) Update(ctx context.Context, session *model.ImpersonationSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal impersonation session: %w", err)
	}

	if err := s.client.Set(ctx, impersonationKey(session.Token), string(data), goredis.KeepTTL); err != nil {
		util.Error("Failed to update impersonation session",
			util.String("token", session.Token),
			util.ErrorField(err))
		return fmt.Errorf("failed to update impersonation session: %w", err)
	}
	return nil
}
