package redis

import (
	"context"
	"fmt"
	"time"

	"pixgate/internal/client"
	"pixgate/internal/util"
)

const idempotencyPrefix = "webhook:seen:"

// IdempotencyGuard deduplicates webhook deliveries by transaction id using
// SETNX, so retries from the provider are acknowledged without reprocessing.
type IdempotencyGuard struct {
	client *client.RedisClient
	ttl    time.Duration
}

func NewIdempotencyGuard(client *client.RedisClient, ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{
		client: client,
		ttl:    ttl,
	}
}

// Claim marks a transaction id as processed. It returns true when this call
// is the first to see the id, false when it was already claimed.
func (g *IdempotencyGuard) Claim(ctx context.Context, transactionID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, idempotencyPrefix+transactionID, "1", g.ttl)
	if err != nil {
		util.Error("Failed to claim webhook transaction",
			util.String("transaction_id", transactionID),
			util.ErrorField(err))
		return false, fmt.Errorf("failed to claim transaction: %w", err)
	}
	return ok, nil
}
