package models

import "time"

// AuditEntry is an immutable record of one administrative action.
// Entries are appended by the audit recorder and never updated or deleted.
type AuditEntry struct {
	// ID is the unique identifier for the entry (UUID).
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// UserID identifies the affected user, or "bulk-operation" for batch actions.
	UserID string `gorm:"size:100;index" json:"userId"`
	// PerformedBy is the email of the administrator who performed the action.
	PerformedBy string `gorm:"size:255;not null" json:"performedBy"`
	// Action is the human-readable action kind (e.g. "Access Granted").
	Action string `gorm:"size:100;not null;index" json:"action"`
	// Details holds structured action details (granted apps, counts, payloads).
	Details map[string]any `gorm:"serializer:json" json:"details"`
	// CreatedAt is the timestamp when the action occurred (managed by GORM).
	CreatedAt time.Time `json:"timestamp"`
}

// TableName specifies the database table name for the AuditEntry model.
// This overrides GORM's default pluralized table naming.
func (AuditEntry) TableName() string {
	return "audit_entries"
}
