package models

import "time"

// Entry is one logged song for one calendar day. Date is normalized to local
// midnight of the day the entry counts toward; the composite unique index keeps
// one counted entry per user per day.
type Entry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_entries_user_date" json:"user_id"`
	Date       time.Time `gorm:"type:date;not null;uniqueIndex:idx_entries_user_date" json:"date"`
	SongTitle  string    `gorm:"size:255;not null" json:"song_title"`
	Artist     string    `gorm:"size:255;not null" json:"artist"`
	Album      string    `gorm:"size:255" json:"album"`
	ArtworkURL string    `gorm:"size:512" json:"artwork_url"`
	PreviewURL string    `gorm:"size:512" json:"preview_url"`
	Note       string    `gorm:"type:text" json:"note"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Comments   []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
}
