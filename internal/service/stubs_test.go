package service

import (
	"context"
	"sync"
	"time"

	"pixgate/internal/auth"
	"pixgate/internal/model"
	clickhouserepo "pixgate/internal/repository/clickhouse"
	redisrepo "pixgate/internal/repository/redis"
	"pixgate/internal/repository/scylla"
)

type stubUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]*model.User
}

func newStubUserRepo(users ...*model.User) *stubUserRepo {
	r := &stubUserRepo{
		byID:    map[string]*model.User{},
		byEmail: map[string]*model.User{},
	}
	for _, u := range users {
		r.byID[u.UserID] = u
		r.byEmail[u.Email] = u
	}
	return r
}

func (r *stubUserRepo) CreateUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[user.UserID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *stubUserRepo) GetUserByID(_ context.Context, userID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[userID]; ok {
		return u, nil
	}
	return nil, scylla.ErrUserNotFound
}

func (r *stubUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, scylla.ErrUserNotFound
}

func (r *stubUserRepo) UpdateUserStatus(_ context.Context, userID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return scylla.ErrUserNotFound
	}
	u.Status = status
	return nil
}

func (r *stubUserRepo) UpdateLastLogin(_ context.Context, userID, loginIP string) error {
	return nil
}

func (r *stubUserRepo) ListByStatus(_ context.Context, status string, limit int) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []*model.User
	for _, u := range r.byID {
		if u.Status == status {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *stubUserRepo) HealthCheck(context.Context) error { return nil }

type stubWalletRepo struct {
	mu      sync.Mutex
	wallets map[string]*model.PixWallet
}

func newStubWalletRepo() *stubWalletRepo {
	return &stubWalletRepo{wallets: map[string]*model.PixWallet{}}
}

func (r *stubWalletRepo) GetWallet(_ context.Context, userID string) (*model.PixWallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.wallets[userID]; ok {
		copied := *w
		return &copied, nil
	}
	return nil, scylla.ErrWalletNotFound
}

func (r *stubWalletRepo) CreateWallet(_ context.Context, wallet *model.PixWallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[wallet.UserID]; !ok {
		copied := *wallet
		r.wallets[wallet.UserID] = &copied
	}
	return nil
}

func (r *stubWalletRepo) UpdateBalances(_ context.Context, wallet *model.PixWallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *wallet
	r.wallets[wallet.UserID] = &copied
	return nil
}

type stubKeyRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.APIKey
	byHash map[string]*model.APIKey
}

func newStubKeyRepo() *stubKeyRepo {
	return &stubKeyRepo{
		byID:   map[string]*model.APIKey{},
		byHash: map[string]*model.APIKey{},
	}
}

func (r *stubKeyRepo) CreateKey(_ context.Context, key *model.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[key.KeyID] = key
	r.byHash[key.KeyHash] = key
	return nil
}

func (r *stubKeyRepo) GetKeyByHash(_ context.Context, keyHash string) (*model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k, ok := r.byHash[keyHash]; ok {
		return k, nil
	}
	return nil, scylla.ErrKeyNotFound
}

func (r *stubKeyRepo) GetKeyByID(_ context.Context, keyID string) (*model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k, ok := r.byID[keyID]; ok {
		return k, nil
	}
	return nil, scylla.ErrKeyNotFound
}

func (r *stubKeyRepo) ListKeysByUser(_ context.Context, userID string) ([]*model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []*model.APIKey
	for _, k := range r.byID {
		if k.UserID == userID {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (r *stubKeyRepo) RevokeKey(_ context.Context, keyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byID[keyID]
	if !ok {
		return scylla.ErrKeyNotFound
	}
	now := time.Now()
	k.RevokedAt = &now
	return nil
}

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*auth.Identity
	counter  int
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: map[string]*auth.Identity{}}
}

func sessionStubKey(kind auth.Kind, id string) string {
	return string(kind) + ":" + id
}

func (s *stubSessionStore) CreateSession(_ context.Context, kind auth.Kind, identity *auth.Identity, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	id := "sess-" + string(rune('0'+s.counter))
	s.sessions[sessionStubKey(kind, id)] = identity
	return id, nil
}

func (s *stubSessionStore) SessionExists(_ context.Context, kind auth.Kind, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionStubKey(kind, sessionID)]
	return ok, nil
}

func (s *stubSessionStore) DeleteSession(_ context.Context, kind auth.Kind, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionStubKey(kind, sessionID))
	return nil
}

type stubImpersonationStore struct {
	mu       sync.Mutex
	sessions map[string]*model.ImpersonationSession
}

func newStubImpersonationStore() *stubImpersonationStore {
	return &stubImpersonationStore{sessions: map[string]*model.ImpersonationSession{}}
}

func (s *stubImpersonationStore) Save(_ context.Context, session *model.ImpersonationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[session.Token] = &copied
	return nil
}

func (s *stubImpersonationStore) Get(_ context.Context, token string) (*model.ImpersonationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		copied := *sess
		return &copied, nil
	}
	return nil, redisrepo.ErrImpersonationNotFound
}

func (s *stubImpersonationStore) Update(_ context.Context, session *model.ImpersonationSession) error {
	return s.Save(context.Background(), session)
}

type stubDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newStubDedup() *stubDedup {
	return &stubDedup{seen: map[string]bool{}}
}

func (d *stubDedup) Claim(_ context.Context, transactionID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[transactionID] {
		return false, nil
	}
	d.seen[transactionID] = true
	return true, nil
}

type recordingAuditor struct {
	mu             sync.Mutex
	impersonations []*clickhouserepo.ImpersonationEvent
	relays         []*clickhouserepo.RelayEvent
}

func (a *recordingAuditor) RecordImpersonation(_ context.Context, event *clickhouserepo.ImpersonationEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.impersonations = append(a.impersonations, event)
	return nil
}

func (a *recordingAuditor) RecentImpersonations(_ context.Context, adminID string, limit int) ([]*clickhouserepo.ImpersonationEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*clickhouserepo.ImpersonationEvent
	for _, e := range a.impersonations {
		if e.AdminID == adminID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *recordingAuditor) RecordRelay(_ context.Context, event *clickhouserepo.RelayEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.relays = append(a.relays, event)
	return nil
}
