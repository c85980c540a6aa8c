package clickhouse

import (
	"context"
	"fmt"
	"time"

	"pixgate/internal/bucketing"
	"pixgate/internal/client"
	"pixgate/internal/util"
)

// AuditRepository appends security and relay events to the audit trail.
// Rows are immutable; corrections are new rows.
type AuditRepository struct {
	client   *client.ClickHouseClient
	bucketer *bucketing.Manager
}

func NewAuditRepository(client *client.ClickHouseClient, bucketer *bucketing.Manager) *AuditRepository {
	return &AuditRepository{
		client:   client,
		bucketer: bucketer,
	}
}

// ImpersonationEvent is one row in the impersonation audit log.
type ImpersonationEvent struct {
	Token     string
	Action    string // started | ended | expired
	AdminID   string
	SellerID  string
	IP        string
	UserAgent string
	At        time.Time
}

// RelayEvent is one row in the webhook relay audit log.
type RelayEvent struct {
	TransactionID  string
	ExternalID     string
	Status         string
	Value          int64
	Currency       string
	Forwarded      bool
	Duplicate      bool
	EncryptedPayer string
	At             time.Time
}

// RecordImpersonation appends one impersonation lifecycle event.
func (r *AuditRepository) RecordImpersonation(ctx context.Context, event *ImpersonationEvent) error {
	query := `INSERT INTO impersonation_audit
		(event_bucket, date_bucket, token, action, admin_id, seller_id, ip, user_agent, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err := r.client.Exec(ctx, query,
		r.bucketer.EventBucket(event.Token),
		r.bucketer.DateBucket(event.At),
		event.Token,
		event.Action,
		event.AdminID,
		event.SellerID,
		event.IP,
		event.UserAgent,
		event.At,
	)
	if err != nil {
		util.Error("Failed to record impersonation event",
			util.String("action", event.Action),
			util.ErrorField(err))
		return fmt.Errorf("failed to record impersonation event: %w", err)
	}
	return nil
}

// RecordRelay appends one webhook relay event.
func (r *AuditRepository) RecordRelay(ctx context.Context, event *RelayEvent) error {
	query := `INSERT INTO webhook_relay_audit
		(event_bucket, date_bucket, transaction_id, external_id, status, value, currency, forwarded, duplicate, encrypted_payer, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err := r.client.Exec(ctx, query,
		r.bucketer.EventBucket(event.TransactionID),
		r.bucketer.DateBucket(event.At),
		event.TransactionID,
		event.ExternalID,
		event.Status,
		event.Value,
		event.Currency,
		event.Forwarded,
		event.Duplicate,
		event.EncryptedPayer,
		event.At,
	)
	if err != nil {
		util.Error("Failed to record relay event",
			util.String("transaction_id", event.TransactionID),
			util.ErrorField(err))
		return fmt.Errorf("failed to record relay event: %w", err)
	}
	return nil
}

// RecentImpersonations lists the latest impersonation events for an admin.
func (r *AuditRepository) RecentImpersonations(ctx context.Context, adminID string, limit int) ([]*ImpersonationEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `SELECT token, action, admin_id, seller_id, ip, user_agent, occurred_at
		FROM impersonation_audit
		WHERE admin_id = ?
		ORDER BY occurred_at DESC
		LIMIT ?`

	rows, err := r.client.QueryRows(ctx, query, adminID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query impersonation audit: %w", err)
	}
	defer rows.Close()

	var events []*ImpersonationEvent
	for rows.Next() {
		event := &ImpersonationEvent{}
		if err := rows.Scan(
			&event.Token,
			&event.Action,
			&event.AdminID,
			&event.SellerID,
			&event.IP,
			&event.UserAgent,
			&event.At,
		); err != nil {
			return nil, fmt.Errorf("failed to scan impersonation event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
