package models

import "time"

// MessageType classifies a chat message.
type MessageType string

const (
	// MessageTypeComment is a plain discussion message.
	MessageTypeComment MessageType = "comment"
	// MessageTypeQuestion marks a message as a question.
	MessageTypeQuestion MessageType = "question"
	// MessageTypeUpdate marks a message as a status update.
	MessageTypeUpdate MessageType = "update"
	// MessageTypeAnnouncement is an admin-only broadcast message.
	MessageTypeAnnouncement MessageType = "announcement"
)

// Reaction is one emoji reaction on a chat message.
type Reaction struct {
	Emoji    string `json:"emoji"`
	UserID   uint64 `json:"userId"`
	UserName string `json:"userName"`
}

// ChatMessage represents one message in the team chat.
// The author's name and role are denormalized at write time so the feed stays
// stable when users are renamed or deleted.
type ChatMessage struct {
	// ID is the unique identifier for the message (UUID).
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// UserID is the author's user ID.
	UserID uint64 `gorm:"not null;index" json:"userId"`
	// UserName is the author's display name at the time of posting.
	UserName string `gorm:"size:255" json:"userName"`
	// UserRole is the author's role at the time of posting.
	UserRole string `gorm:"size:50" json:"userRole"`
	// Content is the message body.
	Content string `gorm:"size:4000;not null" json:"content"`
	// Type classifies the message (comment, question, update, announcement).
	Type MessageType `gorm:"type:varchar(20);not null;default:'comment'" json:"type"`
	// AppID optionally links the message to a catalog application.
	AppID string `gorm:"size:100;index" json:"appId,omitempty"`
	// Tags are free-form labels attached to the message.
	Tags []string `gorm:"serializer:json" json:"tags"`
	// Reactions are the emoji reactions on the message.
	Reactions []Reaction `gorm:"serializer:json" json:"reactions"`
	// Pinned marks admin-pinned messages shown at the top of the feed.
	Pinned bool `gorm:"default:false" json:"pinned"`
	// CreatedAt is the timestamp when the message was posted (managed by GORM).
	CreatedAt time.Time `json:"timestamp"`
}

// TableName specifies the database table name for the ChatMessage model.
// This overrides GORM's default pluralized table naming.
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// AnnouncementPriority classifies the urgency of a banner announcement.
type AnnouncementPriority string

const (
	// PriorityLow is an informational announcement.
	PriorityLow AnnouncementPriority = "low"
	// PriorityMedium is a normal announcement.
	PriorityMedium AnnouncementPriority = "medium"
	// PriorityHigh is an urgent announcement.
	PriorityHigh AnnouncementPriority = "high"
)

// Announcement is a dismissable banner shown to every portal user.
type Announcement struct {
	// ID is the unique identifier for the announcement (UUID).
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// Content is the banner text.
	Content string `gorm:"size:2000;not null" json:"content"`
	// Priority classifies the banner urgency (low, medium, high).
	Priority AnnouncementPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	// CreatedBy is the email of the admin who published the announcement.
	CreatedBy string `gorm:"size:255" json:"createdBy"`
	// DismissedBy lists the user IDs that dismissed the banner.
	DismissedBy []uint64 `gorm:"serializer:json" json:"dismissedBy"`
	// CreatedAt is the timestamp when the announcement was published (managed by GORM).
	CreatedAt time.Time `json:"timestamp"`
}

// TableName specifies the database table name for the Announcement model.
// This overrides GORM's default pluralized table naming.
func (Announcement) TableName() string {
	return "announcements"
}

// DismissedByUser reports whether the given user already dismissed this announcement.
func (a *Announcement) DismissedByUser(userID uint64) bool {
	for _, id := range a.DismissedBy {
		if id == userID {
			return true
		}
	}

	return false
}
