package models

import "time"

// Vibe is a one-per-user reaction on an entry. Kind is a short reaction name
// ("fire", "heart", ...); toggling the same kind removes the row.
type Vibe struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EntryID   uint      `gorm:"not null;uniqueIndex:idx_vibes_entry_user" json:"entry_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_vibes_entry_user" json:"user_id"`
	Kind      string    `gorm:"size:16;not null;default:'fire'" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
