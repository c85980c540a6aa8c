package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"pixgate/internal/model"
	"pixgate/internal/util"
)

type apiKeyRepository struct {
	client *Client
}

func NewAPIKeyRepository(client *Client) APIKeyRepository {
	return &apiKeyRepository{client: client}
}

func (r *apiKeyRepository) CreateKey(ctx context.Context, key *model.APIKey) error {
	if key.KeyID == "" {
		key.KeyID = uuid.New().String()
	}
	key.CreatedAt = time.Now().UTC()

	batch := r.client.Batch(gocql.LoggedBatch)
	batch.Query(r.client.Prepared.CreateAPIKey.Statement(),
		key.KeyID, key.UserID, key.Name, key.KeyHash, key.Scopes,
		key.IPWhitelist, key.ExpiresAt, key.RevokedAt, key.CreatedAt)
	batch.Query(r.client.Prepared.CreateKeyByHash.Statement(),
		key.KeyHash, key.KeyID)

	if err := r.client.ExecuteBatch(batch.WithContext(ctx)); err != nil {
		util.Error("Failed to create api key",
			util.String("key_id", key.KeyID),
			util.String("user_id", key.UserID),
			util.ErrorField(err))
		return fmt.Errorf("failed to create api key: %w", err)
	}

	util.Info("API key created",
		util.String("key_id", key.KeyID),
		util.String("user_id", key.UserID))
	return nil
}

func (r *apiKeyRepository) GetKeyByHash(ctx context.Context, keyHash string) (*model.APIKey, error) {
	var keyID string
	query := r.client.Prepared.GetKeyIDByHash.Bind(keyHash).WithContext(ctx)
	if err := query.Scan(&keyID); err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to look up api key by hash: %w", err)
	}
	return r.GetKeyByID(ctx, keyID)
}

func (r *apiKeyRepository) GetKeyByID(ctx context.Context, keyID string) (*model.APIKey, error) {
	key := &model.APIKey{}

	query := r.client.Prepared.GetAPIKeyByID.Bind(keyID).WithContext(ctx)
	err := query.Scan(
		&key.KeyID, &key.UserID, &key.Name, &key.KeyHash, &key.Scopes,
		&key.IPWhitelist, &key.ExpiresAt, &key.RevokedAt, &key.CreatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
		}
		util.Error("Failed to get api key",
			util.String("key_id", keyID),
			util.ErrorField(err))
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return key, nil
}

func (r *apiKeyRepository) ListKeysByUser(ctx context.Context, userID string) ([]*model.APIKey, error) {
	iter := r.client.Prepared.ListKeysByUser.Bind(userID).WithContext(ctx).Iter()

	var keys []*model.APIKey
	for {
		key := &model.APIKey{}
		if !iter.Scan(
			&key.KeyID, &key.UserID, &key.Name, &key.KeyHash, &key.Scopes,
			&key.IPWhitelist, &key.ExpiresAt, &key.RevokedAt, &key.CreatedAt) {
			break
		}
		keys = append(keys, key)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

func (r *apiKeyRepository) RevokeKey(ctx context.Context, keyID string) error {
	now := time.Now().UTC()

	query := r.client.Prepared.RevokeAPIKey.Bind(now, keyID).WithContext(ctx)
	if err := query.Exec(); err != nil {
		util.Error("Failed to revoke api key",
			util.String("key_id", keyID),
			util.ErrorField(err))
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	util.Info("API key revoked", util.String("key_id", keyID))
	return nil
}
