package models

import "time"

// PermissionGroup represents a named, reusable bundle of application grants.
// Assigning a group to a user grants every application in the bundle.
// Groups are a convenience layer: the effective access set is always the
// union of individual grants, wildcard expansion and group contributions.
type PermissionGroup struct {
	// ID is the unique slug identifier for the group (e.g. "finance-suite").
	ID string `gorm:"primaryKey;size:100" json:"id"`
	// Name is the display name of the group.
	Name string `gorm:"size:100;not null" json:"name"`
	// Description provides a human-readable explanation of the group's purpose.
	Description string `gorm:"size:255" json:"description"`
	// Icon is the display icon shown in the portal UI.
	Icon string `gorm:"size:16" json:"icon"`
	// Color is the display color class shown in the portal UI.
	Color string `gorm:"size:50" json:"color"`
	// Apps is the set of application IDs the group grants.
	Apps []string `gorm:"serializer:json" json:"apps"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the PermissionGroup model.
// This overrides GORM's default pluralized table naming.
func (PermissionGroup) TableName() string {
	return "permission_groups"
}
