package models

import "time"

// RegisterRequest creates a new user account.
type RegisterRequest struct {
	LoginID         string  `json:"login_id" validate:"required,min=4,max=32"`
	Password        string  `json:"password" validate:"required,min=8"`
	Name            string  `json:"name" validate:"required"`
	Nickname        string  `json:"nickname" validate:"required,min=2,max=20"`
	ProfileImageURL *string `json:"profile_image_url,omitempty" validate:"omitempty,url"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	LoginID   string `json:"login_id" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResult carries the issued tokens. The refresh expiry is returned so
// the HTTP layer can align the cookie lifetime with the ledger record.
type LoginResult struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RefreshToken is a ledger record of an issued refresh token. Only the
// argon2id hash of the raw token is ever stored. A record is valid while
// RevokedAt is null and ExpiresAt lies in the future; revocation is set at
// most once and never cleared.
type RefreshToken struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"user_id"`
	TokenHash string     `db:"token_hash" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// Principal is the resolved identity attached to an authorized request.
// It is request-scoped and never persisted.
type Principal struct {
	UserID int64 `json:"user_id"`
}

// AuditAction labels an auth event in the audit trail.
type AuditAction string

const (
	AuditActionLogin         AuditAction = "LOGIN"
	AuditActionRefresh       AuditAction = "REFRESH"
	AuditActionLogout        AuditAction = "LOGOUT"
	AuditActionTokenRevoked  AuditAction = "TOKEN_REVOKED"
	AuditActionLoginRejected AuditAction = "LOGIN_REJECTED"
)

// AuditLog is an append-only record of an auth event. Payloads never contain
// raw secrets.
type AuditLog struct {
	ID        string      `db:"id" json:"id"`
	UserID    *int64      `db:"user_id" json:"user_id,omitempty"`
	Action    AuditAction `db:"action" json:"action"`
	Detail    string      `db:"detail" json:"detail,omitempty"`
	IPAddress string      `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent string      `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
