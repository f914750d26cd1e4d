package models

import "time"

// Friend request states.
const (
	FriendPending  = "pending"
	FriendAccepted = "accepted"
	FriendDeclined = "declined"
)

// FriendRequest links two users. An accepted row is the friendship; the unique
// index prevents duplicate requests in the same direction.
type FriendRequest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequesterID uint      `gorm:"not null;uniqueIndex:idx_friend_requests_pair" json:"requester_id"`
	AddresseeID uint      `gorm:"not null;uniqueIndex:idx_friend_requests_pair" json:"addressee_id"`
	Status      string    `gorm:"size:16;not null;default:'pending'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Requester   User      `gorm:"foreignKey:RequesterID" json:"requester"`
	Addressee   User      `gorm:"foreignKey:AddresseeID" json:"addressee"`
}
