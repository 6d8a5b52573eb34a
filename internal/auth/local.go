package auth

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/sukut-platform/go-portal/internal/db/models"
)

// LocalProvider handles credential authentication against the local database.
type LocalProvider struct {
	db *gorm.DB

	// inflight coalesces concurrent login attempts for the same email, so a
	// double-submit of the login form performs one credential check.
	inflight singleflight.Group
}

const (
	whereID    = "id = ?"
	whereEmail = "email = ?"
)

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// Authenticate authenticates a user by email and password.
// Inactive and pending accounts are rejected even with valid credentials.
func (p *LocalProvider) Authenticate(email, password string) (*models.User, error) {
	v, err, _ := p.inflight.Do(email, func() (interface{}, error) {
		return p.authenticate(email, password)
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.User), nil
}

func (p *LocalProvider) authenticate(email, password string) (*models.User, error) {
	var user models.User

	err := p.db.Where(whereEmail, email).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	switch user.Status {
	case models.UserStatusInactive:
		return nil, ErrUserAccountInactive
	case models.UserStatusPending:
		return nil, ErrUserAccountPending
	case models.UserStatusActive:
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	p.db.Model(&models.User{}).Where(whereID, user.ID).Update("last_login", now)

	return &user, nil
}

// CreateUser creates a new user with the given role and initial password.
func (p *LocalProvider) CreateUser(
	email, password, firstName, lastName, role, company, department string,
) (*models.User, error) {
	// Check if user already exists
	var existingUser models.User

	err := p.db.Where(whereEmail, email).First(&existingUser).Error
	if err == nil {
		return nil, ErrUserEmailExists
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := models.User{
		Email:      email,
		Password:   models.HashPassword(password),
		FirstName:  firstName,
		LastName:   lastName,
		Role:       role,
		Company:    company,
		Department: department,
		Status:     models.UserStatusActive,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := p.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// UpdateUser updates a user's profile fields.
func (p *LocalProvider) UpdateUser(userID uint64, email, firstName, lastName, company, department string) error {
	updates := map[string]interface{}{
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
		"company":    company,
		"department": department,
		"updated_at": time.Now(),
	}

	return p.db.Model(&models.User{}).
		Where(whereID, userID).
		Updates(updates).Error
}

// ChangePassword changes a user's password after verifying the old one.
func (p *LocalProvider) ChangePassword(userID uint64, oldPassword, newPassword string) error {
	var user models.User
	if err := p.db.Where(whereID, userID).First(&user).Error; err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	return p.db.Model(&models.User{}).
		Where(whereID, userID).
		Update("password", models.HashPassword(newPassword)).Error
}

// ResetPassword resets a user's password (admin function).
func (p *LocalProvider) ResetPassword(userID uint64, newPassword string) error {
	return p.db.Model(&models.User{}).
		Where(whereID, userID).
		Update("password", models.HashPassword(newPassword)).Error
}

// DeleteUser soft deletes a user.
func (p *LocalProvider) DeleteUser(userID uint64) error {
	return p.db.Delete(&models.User{}, userID).Error
}

// GetUserByID retrieves a user by ID with grants and memberships preloaded.
func (p *LocalProvider) GetUserByID(userID uint64) (*models.User, error) {
	var user models.User
	if err := p.db.Preload("AppGrants").Preload("GroupMemberships").
		First(&user, userID).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email.
func (p *LocalProvider) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := p.db.Where(whereEmail, email).First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// ListUsers lists users with optional filters and pagination.
func (p *LocalProvider) ListUsers(
	status models.UserStatus,
	search string,
	limit, offset int,
) ([]models.User, int64, error) {
	var users []models.User

	var total int64

	query := p.db.Model(&models.User{})

	if status != "" {
		query = query.Where("status = ?", status)
	}

	if search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"email LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR department LIKE ?",
			like,
			like,
			like,
			like,
		)
	}

	// Get total count
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Get paginated results
	if err := query.Preload("AppGrants").Preload("GroupMemberships").
		Order("id DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
