package utils

import (
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/models"
)

// TrackEvent records an analytics event asynchronously. Tracking must
// never slow down or fail a request.
func TrackEvent(db *gorm.DB, userID uint, name string, properties string) {
	go func() {
		ev := models.AnalyticsEvent{
			UserID:     userID,
			Event:      name,
			Properties: properties,
		}
		if err := db.Create(&ev).Error; err != nil {
			Sugar.Debugf("track event %s: %v", name, err)
		}
	}()
}
