package scylla

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"pixgate/internal/config"
	"pixgate/internal/util"
)

// PreparedStatements holds the statements the repositories bind at runtime.
type PreparedStatements struct {
	CreateUser        *gocql.Query
	CreateEmailToUser *gocql.Query
	CreateStatusRow   *gocql.Query
	GetUserByID       *gocql.Query
	GetUserByEmail    *gocql.Query
	UpdateUserStatus  *gocql.Query
	UpdateLastLogin   *gocql.Query
	ListByStatus      *gocql.Query

	GetWallet    *gocql.Query
	CreateWallet *gocql.Query
	UpdateWallet *gocql.Query

	CreateAPIKey    *gocql.Query
	CreateKeyByHash *gocql.Query
	GetAPIKeyByID   *gocql.Query
	GetKeyIDByHash  *gocql.Query
	ListKeysByUser  *gocql.Query
	RevokeAPIKey    *gocql.Query
}

type Client struct {
	Session      *gocql.Session
	config       *config.ScyllaConfig
	Prepared     *PreparedStatements
	prepareMutex sync.Mutex
	isPrepared   bool
}

func NewClient(cfg *config.Config) (*Client, error) {
	scyllaConfig := cfg.Scylla

	cluster := gocql.NewCluster(scyllaConfig.Nodes...)
	cluster.Keyspace = scyllaConfig.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	cluster.NumConns = 4
	cluster.SocketKeepalive = 30 * time.Second
	cluster.PageSize = 1000
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		Min:        time.Second,
		Max:        10 * time.Second,
		NumRetries: 3,
	}

	if scyllaConfig.Username != "" && scyllaConfig.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: scyllaConfig.Username,
			Password: scyllaConfig.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create scylla session: %w", err)
	}

	client := &Client{Session: session, config: &scyllaConfig}
	if err := client.prepareStatements(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	util.Info("ScyllaDB client initialized with prepared statements",
		util.Any("nodes", scyllaConfig.Nodes),
		util.String("keyspace", scyllaConfig.Keyspace))

	return client, nil
}

func (s *Client) prepareStatements() error {
	s.prepareMutex.Lock()
	defer s.prepareMutex.Unlock()

	if s.isPrepared {
		return nil
	}

	prepared := &PreparedStatements{}

	prepared.CreateUser = s.Session.Query(`
        INSERT INTO users (
            user_bucket, user_id, email, name, password_hash, role, status,
            created_at, updated_at, last_login_at, last_login_ip
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.CreateEmailToUser = s.Session.Query(`
        INSERT INTO email_to_user (email, user_bucket, user_id)
        VALUES (?, ?, ?)`)

	prepared.CreateStatusRow = s.Session.Query(`
        INSERT INTO users_by_status (status, created_at, user_id, email, name, role)
        VALUES (?, ?, ?, ?, ?, ?)`)

	prepared.GetUserByID = s.Session.Query(`
        SELECT user_bucket, user_id, email, name, password_hash, role, status,
            created_at, updated_at, last_login_at, last_login_ip
        FROM users WHERE user_bucket = ? AND user_id = ?`)

	prepared.GetUserByEmail = s.Session.Query(`
        SELECT user_bucket, user_id FROM email_to_user WHERE email = ?`)

	prepared.UpdateUserStatus = s.Session.Query(`
        UPDATE users SET status = ?, updated_at = ?
        WHERE user_bucket = ? AND user_id = ?`)

	prepared.UpdateLastLogin = s.Session.Query(`
        UPDATE users SET last_login_at = ?, last_login_ip = ?, updated_at = ?
        WHERE user_bucket = ? AND user_id = ?`)

	prepared.ListByStatus = s.Session.Query(`
        SELECT created_at, user_id, email, name, role
        FROM users_by_status WHERE status = ? LIMIT ?`)

	prepared.GetWallet = s.Session.Query(`
        SELECT user_id, brl_amount, total_deposited, total_withdrawn, created_at, updated_at
        FROM pix_wallets WHERE user_id = ?`)

	prepared.CreateWallet = s.Session.Query(`
        INSERT INTO pix_wallets (user_id, brl_amount, total_deposited, total_withdrawn, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?) IF NOT EXISTS`)

	prepared.UpdateWallet = s.Session.Query(`
        UPDATE pix_wallets SET brl_amount = ?, total_deposited = ?, total_withdrawn = ?, updated_at = ?
        WHERE user_id = ?`)

	prepared.CreateAPIKey = s.Session.Query(`
        INSERT INTO api_keys (
            key_id, user_id, name, key_hash, scopes, ip_whitelist,
            expires_at, revoked_at, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.CreateKeyByHash = s.Session.Query(`
        INSERT INTO key_hash_to_key (key_hash, key_id) VALUES (?, ?)`)

	prepared.GetAPIKeyByID = s.Session.Query(`
        SELECT key_id, user_id, name, key_hash, scopes, ip_whitelist,
            expires_at, revoked_at, created_at
        FROM api_keys WHERE key_id = ?`)

	prepared.GetKeyIDByHash = s.Session.Query(`
        SELECT key_id FROM key_hash_to_key WHERE key_hash = ?`)

	prepared.ListKeysByUser = s.Session.Query(`
        SELECT key_id, user_id, name, key_hash, scopes, ip_whitelist,
            expires_at, revoked_at, created_at
        FROM api_keys WHERE user_id = ? ALLOW FILTERING`)

	prepared.RevokeAPIKey = s.Session.Query(`
        UPDATE api_keys SET revoked_at = ? WHERE key_id = ?`)

	s.Prepared = prepared
	s.isPrepared = true

	util.Info("ScyllaDB prepared statements created")
	return nil
}

func (s *Client) Batch(typ gocql.BatchType) *gocql.Batch {
	return s.Session.NewBatch(typ)
}

func (s *Client) ExecuteBatch(batch *gocql.Batch) error {
	return s.Session.ExecuteBatch(batch)
}

func (s *Client) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var clusterName string
	err := s.Session.Query(`SELECT cluster_name FROM system.local`).WithContext(ctx).Scan(&clusterName)
	if err != nil {
		return fmt.Errorf("scylla health check failed: %w", err)
	}
	return nil
}

func (s *Client) Close() {
	if s.Session != nil {
		s.Session.Close()
		util.Info("ScyllaDB client closed")
	}
}
