package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// UserStatus represents the lifecycle state of a user account.
// Only active users may log in; pending users have been created but not yet
// approved, inactive users are blocked.
type UserStatus string

const (
	// UserStatusActive indicates the account may log in.
	UserStatusActive UserStatus = "active"
	// UserStatusInactive indicates the account is blocked from logging in.
	UserStatusInactive UserStatus = "inactive"
	// UserStatusPending indicates the account was created but not yet approved.
	UserStatusPending UserStatus = "pending"
)

// User represents a portal user account.
// A user's role names an entry in the role registry (roles are configuration,
// not code); the permission record consists of individually granted app IDs
// (AppGrants, possibly the wildcard), permission group memberships
// (GroupMemberships) and feature flags.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Email is the unique login identifier.
	Email string `gorm:"unique;size:255;not null"`
	// Password is the Argon2id hashed password.
	Password string `gorm:"size:255"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100"`
	// Role names the user's role in the role registry (e.g. "admin", "operator").
	Role string `gorm:"size:50;not null"`
	// Company the user belongs to.
	Company string `gorm:"size:255"`
	// Department within the company, optional.
	Department string `gorm:"size:255"`
	// Status gates login (active, inactive or pending).
	Status UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	// Features holds the user's feature flags.
	Features []string `gorm:"serializer:json"`
	// AppGrants are the individually granted application IDs (may contain the wildcard).
	AppGrants []AppGrant `gorm:"foreignKey:UserID"`
	// GroupMemberships are the user's permission group memberships.
	GroupMemberships []GroupMembership `gorm:"foreignKey:UserID"`
	// LastLogin is the timestamp of the last successful login.
	LastLogin *time.Time
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
	// DeletedAt is the soft delete timestamp (nil if not deleted, managed by GORM).
	DeletedAt *time.Time
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// GrantedAppIDs returns the individually granted app IDs as a plain slice.
func (u *User) GrantedAppIDs() []string {
	out := make([]string, 0, len(u.AppGrants))
	for _, g := range u.AppGrants {
		out = append(out, g.AppID)
	}

	return out
}

// GroupIDs returns the IDs of the permission groups the user belongs to.
func (u *User) GroupIDs() []string {
	out := make([]string, 0, len(u.GroupMemberships))
	for _, m := range u.GroupMemberships {
		out = append(out, m.GroupID)
	}

	return out
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating user passwords.
// It uses the default Argon2id parameters for secure password hashing.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
