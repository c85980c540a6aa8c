package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pixgate/internal/auth"
	"pixgate/internal/model"
	"pixgate/internal/repository/scylla"
	"pixgate/internal/util"
)

var (
	// Each failing key check is a distinct, reportable rejection reason.
	ErrInvalidKey   = errors.New("invalid api key")
	ErrKeyExpired   = errors.New("api key expired")
	ErrIPNotAllowed = errors.New("ip not in whitelist")
	ErrScopeDenied  = errors.New("scope not granted")

	ErrBadScopes      = errors.New("scopes must be non-empty strings")
	ErrBadIPWhitelist = errors.New("ip whitelist entries must be IPs or CIDRs")
)

const keyPrefix = "pk_live_"

// APIKeyService issues and validates API keys. Only the SHA-256 hash of a
// key is stored; the full key is returned exactly once, at creation.
type APIKeyService struct {
	keys scylla.APIKeyRepository
	now  func() time.Time
}

func NewAPIKeyService(keys scylla.APIKeyRepository) *APIKeyService {
	return &APIKeyService{
		keys: keys,
		now:  time.Now,
	}
}

// CreatedKey carries the one-time plaintext key alongside the stored record.
type CreatedKey struct {
	Key    string        `json:"key"`
	Record *model.APIKey `json:"record"`
}

// CreateKey issues a new key for a user.
func (s *APIKeyService) CreateKey(ctx context.Context, userID, name string, scopes, ipWhitelist []string, expiresAt *time.Time) (*CreatedKey, error) {
	if len(scopes) == 0 || !auth.ValidateScopes(scopes) {
		return nil, ErrBadScopes
	}
	if !auth.ValidateIPWhitelist(ipWhitelist) {
		return nil, ErrBadIPWhitelist
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate key material: %w", err)
	}
	plaintext := keyPrefix + hex.EncodeToString(raw)

	record := &model.APIKey{
		KeyID:       uuid.New().String(),
		UserID:      userID,
		Name:        util.SanitizeInput(name),
		KeyHash:     hashKey(plaintext),
		Scopes:      scopes,
		IPWhitelist: ipWhitelist,
		ExpiresAt:   expiresAt,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.keys.CreateKey(ctx, record); err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}

	util.Info("API key created",
		util.String("key_id", record.KeyID),
		util.String("user_id", userID),
		util.Any("scopes", scopes))

	return &CreatedKey{Key: plaintext, Record: record}, nil
}

// ValidateKey authorizes one request made with an API key. Checks run in a
// fixed order and each failure carries its own sentinel: unknown or revoked
// key, expiry, IP whitelist, then scope.
func (s *APIKeyService) ValidateKey(ctx context.Context, plaintext, requiredScope, clientIP string) (*model.APIKey, error) {
	key, err := s.keys.GetKeyByHash(ctx, hashKey(plaintext))
	if err != nil {
		if errors.Is(err, scylla.ErrKeyNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, fmt.Errorf("key lookup: %w", err)
	}

	if key.RevokedAt != nil {
		return nil, ErrInvalidKey
	}
	if key.ExpiresAt != nil && !s.now().Before(*key.ExpiresAt) {
		return nil, ErrKeyExpired
	}
	if !auth.IPAllowed(clientIP, key.IPWhitelist) {
		util.Warn("API key used from disallowed IP",
			util.String("key_id", key.KeyID),
			util.String("ip", clientIP))
		return nil, ErrIPNotAllowed
	}
	if !auth.ScopeAllowed(key.Scopes, requiredScope) {
		return nil, ErrScopeDenied
	}

	return key, nil
}

// ListKeys lists a user's keys, hashes omitted by the model's JSON tags.
func (s *APIKeyService) ListKeys(ctx context.Context, userID string) ([]*model.APIKey, error) {
	return s.keys.ListKeysByUser(ctx, userID)
}

// RevokeKey revokes one key by id, checking ownership first.
func (s *APIKeyService) RevokeKey(ctx context.Context, userID, keyID string) error {
	key, err := s.keys.GetKeyByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, scylla.ErrKeyNotFound) {
			return ErrInvalidKey
		}
		return fmt.Errorf("key lookup: %w", err)
	}
	if key.UserID != userID {
		return ErrInvalidKey
	}

	if err := s.keys.RevokeKey(ctx, keyID); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}

	util.Info("API key revoked",
		util.String("key_id", keyID),
		util.String("user_id", userID))
	return nil
}

func hashKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
