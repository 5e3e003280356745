package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/daylog-app/daylog-api/internal/models"
)

// UserRepository provides read access to user credential records and the
// account creation path. Auth flows never mutate user rows.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByLoginID returns a user by login identifier.
func (r *UserRepository) FindByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	const query = `SELECT id, login_id, name, nickname, password_hash, profile_image_url, status, created_at, updated_at FROM users WHERE login_id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, loginID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by login id: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `SELECT id, login_id, name, nickname, password_hash, profile_image_url, status, created_at, updated_at FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ExistsByLoginID reports whether a user with the login id already exists.
func (r *UserRepository) ExistsByLoginID(ctx context.Context, loginID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE login_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, loginID); err != nil {
		return false, fmt.Errorf("check login id: %w", err)
	}
	return exists, nil
}

// ExistsByNickname reports whether a user with the nickname already exists.
func (r *UserRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE nickname = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, nickname); err != nil {
		return false, fmt.Errorf("check nickname: %w", err)
	}
	return exists, nil
}

// Create inserts a new user and fills in the generated identifier.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Status == "" {
		user.Status = models.StatusActive
	}

	const query = `INSERT INTO users (login_id, name, nickname, password_hash, profile_image_url, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &user.ID, query,
		user.LoginID, user.Name, user.Nickname, user.PasswordHash,
		user.ProfileImageURL, user.Status, user.CreatedAt, user.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetProfile returns the public profile fields for a user.
func (r *UserRepository) GetProfile(ctx context.Context, id int64) (*models.Profile, error) {
	const query = `SELECT nickname, profile_image_url FROM users WHERE id = $1 LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}
