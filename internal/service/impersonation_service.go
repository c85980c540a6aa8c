package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pixgate/internal/config"
	"pixgate/internal/events"
	"pixgate/internal/model"
	clickhouserepo "pixgate/internal/repository/clickhouse"
	redisrepo "pixgate/internal/repository/redis"
	"pixgate/internal/repository/scylla"
	"pixgate/internal/util"
)

var (
	// ErrInvalidSession covers unknown and expired impersonation tokens.
	ErrInvalidSession = errors.New("invalid impersonation session")
	// ErrSessionAlreadyEnded is returned when a session is ended twice. The
	// second end must fail distinctly so the audit trail keeps exactly one
	// legitimate end event per session.
	ErrSessionAlreadyEnded = errors.New("impersonation session already ended")
	// ErrSellerNotFound is returned when the impersonation target does not
	// exist or is not a seller account.
	ErrSellerNotFound = errors.New("seller not found")
)

// ImpersonationStore is the record store surface the service needs.
type ImpersonationStore interface {
	Save(ctx context.Context, session *model.ImpersonationSession) error
	Get(ctx context.Context, token string) (*model.ImpersonationSession, error)
	Update(ctx context.Context, session *model.ImpersonationSession) error
}

var _ ImpersonationStore = (*redisrepo.ImpersonationStore)(nil)

// ImpersonationAuditor records lifecycle events in the audit trail and
// serves the per-admin history view.
type ImpersonationAuditor interface {
	RecordImpersonation(ctx context.Context, event *clickhouserepo.ImpersonationEvent) error
	RecentImpersonations(ctx context.Context, adminID string, limit int) ([]*clickhouserepo.ImpersonationEvent, error)
}

// ImpersonationService lets an admin assume a seller identity for support.
// Sessions move Active to Ended or Expired; both end states are terminal.
type ImpersonationService struct {
	users     scylla.UserRepository
	store     ImpersonationStore
	auditor   ImpersonationAuditor
	publisher *events.Publisher
	ttl       time.Duration
	now       func() time.Time
}

func NewImpersonationService(
	users scylla.UserRepository,
	store ImpersonationStore,
	auditor ImpersonationAuditor,
	publisher *events.Publisher,
	session config.SessionConfig,
) *ImpersonationService {
	return &ImpersonationService{
		users:     users,
		store:     store,
		auditor:   auditor,
		publisher: publisher,
		ttl:       session.ImpersonationTTL,
		now:       time.Now,
	}
}

// StartResult is returned from Start; the token is the bearer credential.
type StartResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Seller    SellerRef `json:"seller"`
}

// SellerRef identifies the impersonated seller in responses.
type SellerRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Start issues a time-limited token bound to one admin+seller pair. The
// target must be an existing seller account.
func (s *ImpersonationService) Start(ctx context.Context, adminID, sellerID, ip, userAgent string) (*StartResult, error) {
	seller, err := s.users.GetUserByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, scylla.ErrUserNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, fmt.Errorf("seller lookup: %w", err)
	}
	if seller.Role != model.RoleSeller {
		return nil, ErrSellerNotFound
	}

	now := s.now()
	session := &model.ImpersonationSession{
		Token:     uuid.New().String(),
		AdminID:   adminID,
		SellerID:  sellerID,
		Status:    model.ImpersonationActive,
		StartedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save impersonation session: %w", err)
	}

	s.audit(ctx, session, "started", ip, userAgent, now)
	s.publisher.Publish(ctx, events.TypeImpersonationStart, adminID, events.SecurityEvent{
		UserID:    adminID,
		TargetID:  sellerID,
		SessionID: session.Token,
		IP:        ip,
		UserAgent: userAgent,
	})

	util.Info("Impersonation started",
		util.String("admin_id", adminID),
		util.String("seller_id", sellerID))

	return &StartResult{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Seller: SellerRef{
			ID:    seller.UserID,
			Email: seller.Email,
			Name:  seller.Name,
		},
	}, nil
}

// Validate returns the session for a token if it is still active. Unknown,
// ended and expired tokens all yield ErrInvalidSession; expiry is detected
// here, lazily, and persisted so the session cannot resurrect.
func (s *ImpersonationService) Validate(ctx context.Context, token string) (*model.ImpersonationSession, error) {
	session, err := s.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, redisrepo.ErrImpersonationNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("get impersonation session: %w", err)
	}

	now := s.now()
	if session.Status != model.ImpersonationActive {
		return nil, ErrInvalidSession
	}
	if !now.Before(session.ExpiresAt) {
		s.expire(ctx, session, now)
		return nil, ErrInvalidSession
	}

	return session, nil
}

// expire marks a session whose lifetime elapsed. There is no background
// sweep; expiry is detected here at validation or end time.
func (s *ImpersonationService) expire(ctx context.Context, session *model.ImpersonationSession, now time.Time) {
	session.Status = model.ImpersonationExpired
	endedAt := session.ExpiresAt
	session.EndedAt = &endedAt
	if err := s.store.Update(ctx, session); err != nil {
		util.Warn("Failed to persist expired impersonation session",
			util.String("token", session.Token),
			util.ErrorField(err))
	}
	s.audit(ctx, session, "expired", "", "", now)
}

// End terminates an active session. An unknown token fails with
// ErrInvalidSession; a second end on the same session fails with
// ErrSessionAlreadyEnded.
func (s *ImpersonationService) End(ctx context.Context, token, ip, userAgent string) error {
	session, err := s.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, redisrepo.ErrImpersonationNotFound) {
			return ErrInvalidSession
		}
		return fmt.Errorf("get impersonation session: %w", err)
	}

	switch session.Status {
	case model.ImpersonationEnded:
		return ErrSessionAlreadyEnded
	case model.ImpersonationExpired:
		return ErrInvalidSession
	}

	now := s.now()
	if !now.Before(session.ExpiresAt) {
		s.expire(ctx, session, now)
		return ErrInvalidSession
	}
	session.Status = model.ImpersonationEnded
	session.EndedAt = &now
	session.EndIP = ip
	session.EndUserAgent = userAgent

	if err := s.store.Update(ctx, session); err != nil {
		return fmt.Errorf("update impersonation session: %w", err)
	}

	s.audit(ctx, session, "ended", ip, userAgent, now)
	s.publisher.Publish(ctx, events.TypeImpersonationEnd, session.AdminID, events.SecurityEvent{
		UserID:    session.AdminID,
		TargetID:  session.SellerID,
		SessionID: session.Token,
		IP:        ip,
		UserAgent: userAgent,
	})

	util.Info("Impersonation ended",
		util.String("admin_id", session.AdminID),
		util.String("seller_id", session.SellerID))
	return nil
}

// History lists the admin's recent impersonation events from the audit
// trail. Without an audit sink there is no history to serve.
func (s *ImpersonationService) History(ctx context.Context, adminID string, limit int) ([]*clickhouserepo.ImpersonationEvent, error) {
	if s.auditor == nil {
		return []*clickhouserepo.ImpersonationEvent{}, nil
	}
	events, err := s.auditor.RecentImpersonations(ctx, adminID, limit)
	if err != nil {
		return nil, fmt.Errorf("impersonation history: %w", err)
	}
	return events, nil
}

func (s *ImpersonationService) audit(ctx context.Context, session *model.ImpersonationSession, action, ip, userAgent string, at time.Time) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.RecordImpersonation(ctx, &clickhouserepo.ImpersonationEvent{
		Token:     session.Token,
		Action:    action,
		AdminID:   session.AdminID,
		SellerID:  session.SellerID,
		IP:        ip,
		UserAgent: userAgent,
		At:        at,
	})
	if err != nil {
		util.Warn("Failed to write impersonation audit row",
			util.String("action", action),
			util.ErrorField(err))
	}
}
