package models

import "time"

// Analytics event names emitted by the core handlers.
const (
	EventBirdUnlocked     = "bird_unlocked"
	EventStreakMilestone  = "streak_milestone_reached"
	EventStreakRestored   = "streak_restored"
	EventEntryLogged      = "entry_logged"
	EventCheckoutStarted  = "checkout_started"
	EventCheckoutComplete = "checkout_completed"
)

// AnalyticsEvent is an append-only product analytics row. Writes are
// fire-and-forget and must never fail a request.
type AnalyticsEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index" json:"user_id"`
	Event      string    `gorm:"size:64;index;not null" json:"event"`
	Properties string    `gorm:"type:text" json:"properties"` // JSON object
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
