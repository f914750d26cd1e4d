package models

import "time"

// Notification kinds.
const (
	NotifFriendRequest = "friend_request"
	NotifFriendAccept  = "friend_accept"
	NotifComment       = "comment"
	NotifVibe          = "vibe"
	NotifMention       = "mention"
	NotifBirdUnlock    = "bird_unlock"
)

// Notification is an in-app notification row. ActorID and EntryID are optional
// depending on kind.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Kind      string     `gorm:"size:32;not null" json:"kind"`
	ActorID   *uint      `json:"actor_id"`
	EntryID   *uint      `json:"entry_id"`
	Body      string     `gorm:"size:512" json:"body"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// NotificationPreference holds per-user delivery switches for push. A missing
// row means everything on; handlers fill the defaults, so false values here
// are always explicit choices.
type NotificationPreference struct {
	UserID        uint      `gorm:"primaryKey" json:"user_id"`
	DailyReminder bool      `json:"daily_reminder"`
	Social        bool      `json:"social"`
	Milestones    bool      `json:"milestones"`
	UpdatedAt     time.Time `json:"updated_at"`
}
