package models

import "time"

// StreakState is the denormalized per-user streak counter. It is owned by the
// streak engine: only the calculator write-back and the restore operation touch
// it. RestoredDay records the single calendar day a restore bridged so that
// recomputation keeps honoring the bridge.
type StreakState struct {
	UserID         uint       `gorm:"primaryKey" json:"user_id"`
	CurrentStreak  int        `gorm:"default:0" json:"current_streak"`
	LongestStreak  int        `gorm:"default:0" json:"longest_streak"`
	LastEntryDate  *time.Time `gorm:"type:date" json:"last_entry_date"`
	LastRestoredAt *time.Time `json:"last_restored_at"`
	RestoredDay    *time.Time `gorm:"type:date" json:"-"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
