package models

import "time"

// WildcardAppID is the sentinel app ID meaning "all catalog applications".
// It is only ever stored; access resolution expands it into the full catalog
// set and never compares it against literal app IDs.
const WildcardAppID = "*"

// AppGrant represents one individually granted application for a user.
// Granting is idempotent: the composite primary key makes a duplicate grant
// a no-op at the set level.
type AppGrant struct {
	// UserID is the ID of the user holding the grant.
	UserID uint64 `gorm:"primaryKey;column:user_id"`
	// AppID is the granted application ID, or WildcardAppID.
	AppID string `gorm:"primaryKey;column:app_id;size:100"`
	// CreatedAt is the timestamp when the grant was issued (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the AppGrant model.
// This overrides GORM's default pluralized table naming.
func (AppGrant) TableName() string {
	return "app_grants"
}

// GroupMembership represents the many-to-many relationship between users and
// permission groups. Group IDs are not foreign keys on purpose: a deleted
// group may leave dangling memberships, which access resolution treats as
// contributing nothing.
type GroupMembership struct {
	// UserID is the ID of the user in this membership.
	UserID uint64 `gorm:"primaryKey;column:user_id"`
	// GroupID is the ID of the permission group.
	GroupID string `gorm:"primaryKey;column:group_id;size:100"`
	// CreatedAt is the timestamp when the user was added to the group (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the GroupMembership model.
// This overrides GORM's default pluralized table naming.
func (GroupMembership) TableName() string {
	return "group_memberships"
}
