package models

import "time"

// WaitlistSignup holds a pre-launch email signup. RefCode is shared by the
// signup to pull friends up the list.
type WaitlistSignup struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	RefCode   string     `gorm:"size:64;uniqueIndex" json:"ref_code"`
	Referrals int        `gorm:"default:0" json:"referrals"`
	InvitedAt *time.Time `json:"invited_at"`
	CreatedAt time.Time  `json:"created_at"`
}
