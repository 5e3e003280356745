package models

import "time"

// UserStatus represents the lifecycle state of an account.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusInactive  UserStatus = "inactive"
	StatusSuspended UserStatus = "suspended"
	StatusDeleted   UserStatus = "deleted"
)

// User represents an application user stored in the users table. The core
// only ever reads this record; it is owned by user management.
type User struct {
	ID              int64      `db:"id" json:"id"`
	LoginID         string     `db:"login_id" json:"login_id"`
	Name            string     `db:"name" json:"name"`
	Nickname        string     `db:"nickname" json:"nickname"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	ProfileImageURL *string    `db:"profile_image_url" json:"profile_image_url,omitempty"`
	Status          UserStatus `db:"status" json:"status"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile is the public slice of a user record.
type Profile struct {
	Nickname        string  `db:"nickname" json:"nickname"`
	ProfileImageURL *string `db:"profile_image_url" json:"profile_image_url"`
}
