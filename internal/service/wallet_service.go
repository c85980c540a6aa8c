package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pixgate/internal/model"
	"pixgate/internal/provider"
	"pixgate/internal/repository/scylla"
	"pixgate/internal/util"
)

var ErrInvalidAmount = errors.New("amount must be a positive integer of cents")

// CashinProvider is the outbound provider surface the wallet service uses.
type CashinProvider interface {
	CreateCashin(ctx context.Context, req *provider.CashinRequest) (*provider.CashinResponse, error)
	GetBalance(ctx context.Context) (*provider.BalanceResponse, error)
}

var _ CashinProvider = (*provider.Client)(nil)

// WalletService manages PIX wallet balances. Wallets are created lazily: the
// first balance lookup for a user materializes a zero wallet.
type WalletService struct {
	wallets  scylla.WalletRepository
	provider CashinProvider
}

func NewWalletService(wallets scylla.WalletRepository, cashinProvider CashinProvider) *WalletService {
	return &WalletService{
		wallets:  wallets,
		provider: cashinProvider,
	}
}

// Balance returns the user's wallet, creating a zero wallet on first lookup.
func (s *WalletService) Balance(ctx context.Context, userID string) (*model.PixWallet, error) {
	wallet, err := s.wallets.GetWallet(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, scylla.ErrWalletNotFound) {
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	now := time.Now().UTC()
	wallet = &model.PixWallet{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.wallets.CreateWallet(ctx, wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	util.Info("Wallet created", util.String("user_id", userID))
	return wallet, nil
}

// Credit applies a confirmed deposit to the user's wallet. The wallet is
// created first when the deposit beats the first balance lookup.
func (s *WalletService) Credit(ctx context.Context, userID string, amount int64) (*model.PixWallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	wallet.BRLAmount += amount
	wallet.TotalDeposited += amount
	wallet.UpdatedAt = time.Now().UTC()

	if err := s.wallets.UpdateBalances(ctx, wallet); err != nil {
		return nil, fmt.Errorf("update balances: %w", err)
	}

	util.Info("Wallet credited",
		util.String("user_id", userID),
		util.Int64("amount", amount),
		util.Int64("balance", wallet.BRLAmount))
	return wallet, nil
}

// CreateCharge asks the provider for a new PIX QR code charge on behalf of
// a seller. The external id correlates the charge with the later webhook.
func (s *WalletService) CreateCharge(ctx context.Context, userID string, amount int64, payerName, payerDocument string) (*provider.CashinResponse, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	externalID := fmt.Sprintf("%s:%s", userID, uuid.New().String())
	return s.provider.CreateCashin(ctx, &provider.CashinRequest{
		Value:         amount,
		ExternalID:    externalID,
		PayerName:     util.SanitizeInput(payerName),
		PayerDocument: payerDocument,
	})
}

// ProviderBalance reads the upstream provider account balance.
func (s *WalletService) ProviderBalance(ctx context.Context) (*provider.BalanceResponse, error) {
	return s.provider.GetBalance(ctx)
}
