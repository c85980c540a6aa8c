package scylla

import (
	"context"
	"errors"

	"pixgate/internal/model"
)

// Store-level sentinels; services translate these into their own vocabulary.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrKeyNotFound    = errors.New("api key not found")
)

// UserRepository is the credential-store surface for user records.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserStatus(ctx context.Context, userID, status string) error
	UpdateLastLogin(ctx context.Context, userID, loginIP string) error
	ListByStatus(ctx context.Context, status string, limit int) ([]*model.User, error)
	HealthCheck(ctx context.Context) error
}

// WalletRepository persists PIX wallet balances.
type WalletRepository interface {
	GetWallet(ctx context.Context, userID string) (*model.PixWallet, error)
	CreateWallet(ctx context.Context, wallet *model.PixWallet) error
	UpdateBalances(ctx context.Context, wallet *model.PixWallet) error
}

// APIKeyRepository persists issued API keys (hash only, never the key).
type APIKeyRepository interface {
	CreateKey(ctx context.Context, key *model.APIKey) error
	GetKeyByHash(ctx context.Context, keyHash string) (*model.APIKey, error)
	GetKeyByID(ctx context.Context, keyID string) (*model.APIKey, error)
	ListKeysByUser(ctx context.Context, userID string) ([]*model.APIKey, error)
	RevokeKey(ctx context.Context, keyID string) error
}
