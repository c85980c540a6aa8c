package model

import "time"

// Role is the closed set of account roles. Authorization decisions are
// membership tests against this enumeration, never free-form strings.
type Role string

const (
	RoleUser       Role = "USER"
	RoleSeller     Role = "SELLER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleOwner      Role = "OWNER"
)

// ParseRole maps a stored role string onto the enumeration. Unknown values
// collapse to RoleUser so a corrupted row can never grant elevated access.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleSeller, RoleAdmin, RoleSuperAdmin, RoleOwner:
		return Role(s)
	default:
		return RoleUser
	}
}

// User account statuses. New accounts start pending and are moved by an
// admin approval/rejection mutation.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type User struct {
	UserBucket   int        `json:"-" db:"user_bucket"`
	UserID       string     `json:"user_id" db:"user_id"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	Status       string     `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	LastLoginIP  string     `json:"-" db:"last_login_ip"`
}

// PixWallet holds the running BRL balance for one user. Amounts are integer
// cents. A wallet is created lazily on first balance lookup.
type PixWallet struct {
	UserID         string    `json:"user_id" db:"user_id"`
	BRLAmount      int64     `json:"brlAmount" db:"brl_amount"`
	TotalDeposited int64     `json:"totalDeposited" db:"total_deposited"`
	TotalWithdrawn int64     `json:"totalWithdrawn" db:"total_withdrawn"`
	CreatedAt      time.Time `json:"-" db:"created_at"`
	UpdatedAt      time.Time `json:"-" db:"updated_at"`
}

// APIKey carries the hash of an issued key, never the key itself. Scopes and
// IPWhitelist are validated non-empty strings when present.
type APIKey struct {
	KeyID       string     `json:"key_id" db:"key_id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Name        string     `json:"name" db:"name"`
	KeyHash     string     `json:"-" db:"key_hash"`
	Scopes      []string   `json:"scopes" db:"scopes"`
	IPWhitelist []string   `json:"ip_whitelist,omitempty" db:"ip_whitelist"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Impersonation session states. A session is active until it is explicitly
// ended or its expiry elapses; both end states are terminal.
const (
	ImpersonationActive  = "active"
	ImpersonationEnded   = "ended"
	ImpersonationExpired = "expired"
)

type ImpersonationSession struct {
	Token        string     `json:"token"`
	AdminID      string     `json:"admin_id"`
	SellerID     string     `json:"seller_id"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	EndIP        string     `json:"end_ip,omitempty"`
	EndUserAgent string     `json:"end_user_agent,omitempty"`
}

// Active reports whether the session is still usable at the given instant.
func (s *ImpersonationSession) Active(now time.Time) bool {
	return s.Status == ImpersonationActive && now.Before(s.ExpiresAt)
}

// CashinCallback is the single internal shape every provider callback is
// normalized into before forwarding, regardless of the field-name variant
// the provider used.
type CashinCallback struct {
	TransactionID string `json:"transaction_id"`
	ExternalID    string `json:"external_id"`
	Status        string `json:"status"`
	Value         int64  `json:"value"`
	Currency      string `json:"currency"`
}
