package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"pixgate/internal/model"
	"pixgate/internal/util"
)

type walletRepository struct {
	client *Client
}

func NewWalletRepository(client *Client) WalletRepository {
	return &walletRepository{client: client}
}

func (r *walletRepository) GetWallet(ctx context.Context, userID string) (*model.PixWallet, error) {
	wallet := &model.PixWallet{}

	query := r.client.Prepared.GetWallet.Bind(userID).WithContext(ctx)
	err := query.Scan(
		&wallet.UserID, &wallet.BRLAmount, &wallet.TotalDeposited,
		&wallet.TotalWithdrawn, &wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, userID)
		}
		util.Error("Failed to get wallet",
			util.String("user_id", userID),
			util.ErrorField(err))
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

func (r *walletRepository) CreateWallet(ctx context.Context, wallet *model.PixWallet) error {
	now := time.Now().UTC()
	wallet.CreatedAt = now
	wallet.UpdatedAt = now

	// IF NOT EXISTS keeps concurrent first-lookups from racing; losing the
	// race is fine, the stored row is identical.
	query := r.client.Prepared.CreateWallet.Bind(
		wallet.UserID, wallet.BRLAmount, wallet.TotalDeposited,
		wallet.TotalWithdrawn, wallet.CreatedAt, wallet.UpdatedAt).WithContext(ctx)
	if err := query.Exec(); err != nil {
		util.Error("Failed to create wallet",
			util.String("user_id", wallet.UserID),
			util.ErrorField(err))
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	util.Info("Wallet created", util.String("user_id", wallet.UserID))
	return nil
}

func (r *walletRepository) UpdateBalances(ctx context.Context, wallet *model.PixWallet) error {
	wallet.UpdatedAt = time.Now().UTC()

	query := r.client.Prepared.UpdateWallet.Bind(
		wallet.BRLAmount, wallet.TotalDeposited, wallet.TotalWithdrawn,
		wallet.UpdatedAt, wallet.UserID).WithContext(ctx)
	if err := query.Exec(); err != nil {
		util.Error("Failed to update wallet balances",
			util.String("user_id", wallet.UserID),
			util.ErrorField(err))
		return fmt.Errorf("failed to update wallet balances: %w", err)
	}

	util.Info("Wallet balances updated",
		util.String("user_id", wallet.UserID),
		util.Int64("brl_amount", wallet.BRLAmount))
	return nil
}
