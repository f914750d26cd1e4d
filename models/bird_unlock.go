package models

import "time"

// Unlock methods recorded on BirdUnlock rows.
const (
	UnlockMethodDefault   = "default"
	UnlockMethodMilestone = "milestone"
	UnlockMethodPurchase  = "purchase"
	UnlockMethodPremium   = "premium"
)

// BirdUnlock records that a user earned a bird theme. Append-only: rows are
// never revoked. The composite unique index is what makes concurrent unlock
// attempts collapse to a single row.
type BirdUnlock struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_bird_unlocks_user_bird" json:"user_id"`
	BirdID     string    `gorm:"size:64;not null;uniqueIndex:idx_bird_unlocks_user_bird" json:"bird_id"`
	Method     string    `gorm:"size:16;not null" json:"method"`
	UnlockedAt time.Time `gorm:"not null" json:"unlocked_at"`
}
