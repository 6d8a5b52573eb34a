// Package audit provides the append-only audit trail for administrative actions.
package audit

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sukut-platform/go-portal/internal/db/models"
)

// Action kinds recorded in the audit trail.
const (
	ActionUserCreated        = "User Created"
	ActionUserUpdated        = "User Updated"
	ActionUserDeleted        = "User Deleted"
	ActionAccessGranted      = "Access Granted"
	ActionAccessRevoked      = "Access Revoked"
	ActionRoleChanged        = "Role Changed"
	ActionStatusChanged      = "Status Changed"
	ActionBulkOperation      = "Bulk Operation"
	ActionGroupCreated       = "Permission Group Created"
	ActionGroupUpdated       = "Permission Group Updated"
	ActionGroupDeleted       = "Permission Group Deleted"
	ActionAnnouncementPosted = "Announcement Posted"
)

// BulkUserID is the UserID recorded for aggregate bulk-operation entries.
const BulkUserID = "bulk-operation"

// ErrEmptyAction is returned when recording an entry without an action kind.
var ErrEmptyAction = errors.New("audit action cannot be empty")

// Recorder appends audit entries. Entries are immutable once written.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates a new audit recorder.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one audit entry. userID identifies the affected user (or
// BulkUserID for aggregate entries), performedBy is the acting admin's email.
func (r *Recorder) Record(userID, performedBy, action string, details map[string]any) error {
	if action == "" {
		return ErrEmptyAction
	}

	entry := models.AuditEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		PerformedBy: performedBy,
		Action:      action,
		Details:     details,
	}

	if err := r.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	log.Info().
		Str("action", action).
		Str("user_id", userID).
		Str("performed_by", performedBy).
		Msg("audit entry recorded")

	return nil
}

// List returns audit entries newest first, with optional action filter and
// free-text search over user/actor, paginated.
func (r *Recorder) List(action, search string, limit, offset int) ([]models.AuditEntry, int64, error) {
	var (
		entries []models.AuditEntry
		total   int64
	)

	query := r.db.Model(&models.AuditEntry{})

	if action != "" {
		query = query.Where("action = ?", action)
	}

	if search != "" {
		like := "%" + search + "%"
		query = query.Where("user_id LIKE ? OR performed_by LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query audit entries: %w", err)
	}

	return entries, total, nil
}

// Actions returns the distinct action kinds present in the trail.
func (r *Recorder) Actions() ([]string, error) {
	var actions []string

	err := r.db.Model(&models.AuditEntry{}).
		Distinct("action").
		Order("action ASC").
		Pluck("action", &actions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit actions: %w", err)
	}

	return actions, nil
}
