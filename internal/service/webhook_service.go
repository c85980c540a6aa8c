package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"pixgate/internal/encryption"
	"pixgate/internal/events"
	"pixgate/internal/model"
	clickhouserepo "pixgate/internal/repository/clickhouse"
	redisrepo "pixgate/internal/repository/redis"
	"pixgate/internal/util"
)

var (
	ErrMissingTransactionID = errors.New("callback missing transaction id")
	ErrMissingValue         = errors.New("callback missing value")
)

// Statuses the provider family reports for a settled cash-in.
var confirmedStatuses = map[string]bool{
	"confirmed": true,
	"paid":      true,
	"approved":  true,
	"completed": true,
}

// Deduplicator claims a transaction id exactly once.
type Deduplicator interface {
	Claim(ctx context.Context, transactionID string) (bool, error)
}

var _ Deduplicator = (*redisrepo.IdempotencyGuard)(nil)

// RelayAuditor records relay events in the audit trail.
type RelayAuditor interface {
	RecordRelay(ctx context.Context, event *clickhouserepo.RelayEvent) error
}

// WalletCrediter applies a confirmed deposit.
type WalletCrediter interface {
	Credit(ctx context.Context, userID string, amount int64) (*model.PixWallet, error)
}

// WebhookService receives provider callbacks, normalizes their field-name
// variants into one internal schema, deduplicates retries, and fans the
// confirmation out to the wallet, the audit trail and the event stream.
type WebhookService struct {
	dedup     Deduplicator
	wallets   WalletCrediter
	auditor   RelayAuditor
	encryptor *encryption.Manager
	publisher *events.Publisher
}

func NewWebhookService(
	dedup Deduplicator,
	wallets WalletCrediter,
	auditor RelayAuditor,
	encryptor *encryption.Manager,
	publisher *events.Publisher,
) *WebhookService {
	return &WebhookService{
		dedup:     dedup,
		wallets:   wallets,
		auditor:   auditor,
		encryptor: encryptor,
		publisher: publisher,
	}
}

// Callback is the normalized internal shape of a provider callback.
type Callback struct {
	model.CashinCallback
	PayerName     string
	PayerDocument string
}

// SellerID derives the seller from the external id issued at charge
// creation, which is "<sellerID>:<orderID>". Empty when the callback carries
// no usable external id.
func (c *Callback) SellerID() string {
	sellerID, _, ok := strings.Cut(c.ExternalID, ":")
	if !ok {
		return ""
	}
	return sellerID
}

// Normalize maps a raw provider payload onto the internal schema. The
// provider family is inconsistent about field casing (externalId vs
// ExternalId), so keys are matched case-insensitively.
func Normalize(raw []byte) (*Callback, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("malformed callback payload: %w", err)
	}

	folded := make(map[string]json.RawMessage, len(fields))
	for key, value := range fields {
		folded[strings.ToLower(key)] = value
	}

	cb := &Callback{}
	cb.TransactionID = stringField(folded, "transactionid", "transaction_id", "id")
	cb.ExternalID = stringField(folded, "externalid", "external_id", "orderid")
	cb.Status = strings.ToLower(stringField(folded, "status"))
	cb.Currency = stringField(folded, "currency")
	cb.PayerName = stringField(folded, "payername", "payer_name")
	cb.PayerDocument = stringField(folded, "payerdocument", "payer_document", "document")
	cb.Value = intField(folded, "value", "amount")

	if cb.TransactionID == "" {
		return nil, ErrMissingTransactionID
	}
	if cb.Value <= 0 {
		return nil, ErrMissingValue
	}
	if cb.Currency == "" {
		cb.Currency = "BRL"
	}
	return cb, nil
}

func stringField(fields map[string]json.RawMessage, names ...string) string {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return ""
}

func intField(fields map[string]json.RawMessage, names ...string) int64 {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			return n
		}
		// Some providers quote numeric fields.
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			var quoted int64
			if _, err := fmt.Sscanf(s, "%d", &quoted); err == nil {
				return quoted
			}
		}
	}
	return 0
}

// RelayResult reports what happened to one callback.
type RelayResult struct {
	Callback  *Callback `json:"callback"`
	Duplicate bool      `json:"duplicate"`
	Credited  bool      `json:"credited"`
}

// Relay processes one raw provider callback end to end. Retried deliveries
// of the same transaction are acknowledged without reprocessing.
func (s *WebhookService) Relay(ctx context.Context, raw []byte) (*RelayResult, error) {
	cb, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	first, err := s.dedup.Claim(ctx, cb.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("idempotency claim: %w", err)
	}
	if !first {
		util.Info("Duplicate callback acknowledged",
			util.String("transaction_id", cb.TransactionID))
		s.audit(ctx, cb, false, true)
		return &RelayResult{Callback: cb, Duplicate: true}, nil
	}

	result := &RelayResult{Callback: cb}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if !confirmedStatuses[cb.Status] {
			return nil
		}
		sellerID := cb.SellerID()
		if sellerID == "" {
			util.Warn("Confirmed callback without derivable seller",
				util.String("transaction_id", cb.TransactionID),
				util.String("external_id", cb.ExternalID))
			return nil
		}
		if _, err := s.wallets.Credit(gctx, sellerID, cb.Value); err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}
		result.Credited = true
		s.publisher.Publish(gctx, events.TypePaymentConfirmed, cb.TransactionID, events.PaymentConfirmed{
			TransactionID: cb.TransactionID,
			ExternalID:    cb.ExternalID,
			SellerID:      sellerID,
			Value:         cb.Value,
			Currency:      cb.Currency,
		})
		return nil
	})
	g.Go(func() error {
		s.audit(gctx, cb, true, false)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	util.Info("Callback relayed",
		util.String("transaction_id", cb.TransactionID),
		util.String("status", cb.Status),
		util.Int64("value", cb.Value),
		util.Bool("credited", result.Credited))
	return result, nil
}

// audit writes one relay row with the payer document encrypted. Audit
// failures never fail the relay.
func (s *WebhookService) audit(ctx context.Context, cb *Callback, forwarded, duplicate bool) {
	if s.auditor == nil {
		return
	}

	encryptedPayer := ""
	if cb.PayerDocument != "" && s.encryptor != nil {
		data, err := s.encryptor.EncryptField(ctx, cb.PayerDocument)
		if err != nil {
			util.Warn("Failed to encrypt payer document",
				util.String("transaction_id", cb.TransactionID),
				util.ErrorField(err))
		} else if encoded, err := json.Marshal(data); err == nil {
			encryptedPayer = string(encoded)
		}
	}

	err := s.auditor.RecordRelay(ctx, &clickhouserepo.RelayEvent{
		TransactionID:  cb.TransactionID,
		ExternalID:     cb.ExternalID,
		Status:         cb.Status,
		Value:          cb.Value,
		Currency:       cb.Currency,
		Forwarded:      forwarded,
		Duplicate:      duplicate,
		EncryptedPayer: encryptedPayer,
		At:             time.Now().UTC(),
	})
	if err != nil {
		util.Warn("Failed to write relay audit row",
			util.String("transaction_id", cb.TransactionID),
			util.ErrorField(err))
	}
}
