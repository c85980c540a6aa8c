package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pixgate/internal/client"
	"pixgate/internal/util"
)

// Event types published to the gateway events topic.
const (
	TypePaymentConfirmed   = "payment.confirmed"
	TypeUserLogin          = "security.user_login"
	TypeUserLogout         = "security.user_logout"
	TypeImpersonationStart = "security.impersonation_started"
	TypeImpersonationEnd   = "security.impersonation_ended"
	TypeUserStatusChanged  = "user.status_changed"
)

// Envelope is the wire format for every published event.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// PaymentConfirmed is emitted when a cash-in webhook credits a wallet.
type PaymentConfirmed struct {
	TransactionID string `json:"transaction_id"`
	ExternalID    string `json:"external_id"`
	SellerID      string `json:"seller_id"`
	Value         int64  `json:"value"`
	Currency      string `json:"currency"`
}

// SecurityEvent covers login, logout and impersonation lifecycle changes.
type SecurityEvent struct {
	UserID    string `json:"user_id"`
	TargetID  string `json:"target_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// UserStatusChanged is emitted when the backoffice approves or rejects a user.
type UserStatusChanged struct {
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	ChangedBy string `json:"changed_by"`
}

// Publisher serializes events and hands them to the Kafka producer. Publish
// failures are logged and swallowed so event delivery never fails a request.
type Publisher struct {
	producer *client.KafkaProducer
}

func NewPublisher(producer *client.KafkaProducer) *Publisher {
	return &Publisher{producer: producer}
}

// Publish emits one event keyed by the given partition key.
func (p *Publisher) Publish(ctx context.Context, eventType, key string, payload interface{}) {
	if p.producer == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		util.Error("Failed to marshal event payload",
			util.String("type", eventType),
			util.ErrorField(err))
		return
	}

	envelope := Envelope{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		util.Error("Failed to marshal event envelope",
			util.String("type", eventType),
			util.ErrorField(err))
		return
	}

	if err := p.producer.Publish(ctx, fmt.Sprintf("%s:%s", eventType, key), data); err != nil {
		util.Error("Failed to publish event",
			util.String("type", eventType),
			util.String("key", key),
			util.ErrorField(err))
	}
}
