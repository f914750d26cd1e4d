package models

import "time"

// PushSubscription stores one browser/device web-push endpoint with its
// encryption keys. Endpoints are unique; a re-subscribe refreshes the keys.
type PushSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Endpoint  string    `gorm:"size:512;not null;uniqueIndex:idx_push_endpoint,length:255" json:"endpoint"`
	P256dh    string    `gorm:"size:255;not null" json:"-"`
	Auth      string    `gorm:"size:255;not null" json:"-"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}
