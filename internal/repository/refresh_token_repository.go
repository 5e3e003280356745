package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/daylog-app/daylog-api/internal/models"
)

// RefreshTokenRepository is the durable ledger of issued refresh-token
// hashes. Records are inserted on login, revoked at most once, and never
// deleted.
type RefreshTokenRepository struct {
	db *sqlx.DB
}

// NewRefreshTokenRepository creates a new instance of RefreshTokenRepository.
func NewRefreshTokenRepository(db *sqlx.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create persists a new ledger record and fills in the generated identifier.
// A user may hold any number of concurrently valid records, one per session.
func (r *RefreshTokenRepository) Create(ctx context.Context, rec *models.RefreshToken) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at, revoked_at) VALUES ($1, $2, $3, $4, NULL) RETURNING id`
	if err := r.db.GetContext(ctx, &rec.ID, query, rec.UserID, rec.TokenHash, rec.ExpiresAt, rec.CreatedAt); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindLatestValid returns the newest unrevoked, unexpired record for the
// user, or sql.ErrNoRows. Older valid records are deliberately ignored: only
// the most recently issued session token can refresh or be revoked via
// lookup.
func (r *RefreshTokenRepository) FindLatestValid(ctx context.Context, userID int64) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token_hash, expires_at, created_at, revoked_at FROM refresh_tokens WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2 ORDER BY created_at DESC LIMIT 1`
	var rec models.RefreshToken
	if err := r.db.GetContext(ctx, &rec, query, userID, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find latest valid refresh token: %w", err)
	}
	return &rec, nil
}

// Revoke marks a record as revoked. The guard on revoked_at makes the update
// a no-op when another request already revoked the row, so concurrent calls
// are safe.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id int64, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
