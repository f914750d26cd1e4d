package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a SongBird account. Passwords are stored as bcrypt hashes only;
// OAuth accounts carry the external provider identity instead.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Username         string         `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email            string         `gorm:"size:255" json:"email"`
	PasswordHash     string         `gorm:"size:255" json:"-"`
	Provider         string         `gorm:"size:32" json:"provider"`
	ProviderID       string         `gorm:"size:255;index" json:"-"`
	DisplayName      string         `gorm:"size:128" json:"display_name"`
	AvatarURL        string         `gorm:"size:512" json:"avatar_url"`
	Bio              string         `gorm:"size:255" json:"bio"`
	SelectedBird     string         `gorm:"size:64;default:'american-robin'" json:"selected_bird"`
	IsPremium        bool           `gorm:"default:false" json:"is_premium"`
	PremiumSince     *time.Time     `json:"premium_since"`
	StripeCustomerID string         `gorm:"size:255" json:"-"`
	RegisterIP       string         `gorm:"size:45" json:"-"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	Entries          []Entry        `json:"-"`
	Comments         []Comment      `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
