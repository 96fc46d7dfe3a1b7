// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a creator account.
//
// Username and email are stored lowercase; uniqueness is case-insensitive by
// construction. PasswordHash is never serialized to clients.
type User struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Username     string       `gorm:"unique;not null" json:"username"`
	Email        string       `gorm:"unique;not null" json:"email"`
	PasswordHash string       `gorm:"not null" json:"-"`
	DisplayName  string       `gorm:"not null" json:"display_name"`
	Bio          string       `gorm:"type:text" json:"bio"`
	AvatarURL    string       `json:"avatar_url"`
	CoverURL     string       `json:"cover_url"`
	Experience   []Experience `gorm:"foreignKey:UserID" json:"experience,omitempty"`

	// FollowersCount and FollowingCount are not persisted; computed at query time.
	FollowersCount int `gorm:"->;-:migration" json:"followers_count"`
	FollowingCount int `gorm:"->;-:migration" json:"following_count"`

	// Stats aggregates views and appreciations across the user's projects.
	// Recomputed lazily at profile-fetch time, never stored.
	Stats *UserStats `gorm:"-" json:"stats,omitempty"`

	// Following reports whether the current requesting user follows this user.
	Following bool `gorm:"-" json:"following,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Projects []Project `gorm:"foreignKey:OwnerID" json:"projects,omitempty"`
}

// UserStats holds aggregate engagement totals over a user's projects.
type UserStats struct {
	Views         int64 `json:"views"`
	Appreciations int64 `json:"appreciations"`
}

// Experience is one work-experience entry on a user profile.
type Experience struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"-"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Description string     `gorm:"type:text" json:"description"`
}

// Follow is a single directed edge: follower follows followee. Storing the
// relation once removes the two-writes-must-agree hazard of keeping mirrored
// follower/following lists on both users.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FolloweeID uint      `gorm:"primaryKey;autoIncrement:false" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}
