package utils

import (
	"encoding/json"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/config"
	"github.com/songbirdapp/songbird/models"
)

// PushPayload is the notification body delivered to the service worker.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// SendPushToUser delivers a push notification to every subscription the
// user has registered. Failed endpoints that report Gone are pruned.
// Errors are logged, never surfaced: push is best-effort.
func SendPushToUser(db *gorm.DB, userID uint, payload PushPayload) {
	cfg := config.Get()
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return
	}

	var subs []models.PushSubscription
	if err := db.Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		Sugar.Warnf("load push subscriptions for user %d: %v", userID, err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	for _, sub := range subs {
		resp, err := webpush.SendNotification(body, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dh,
				Auth:   sub.Auth,
			},
		}, &webpush.Options{
			Subscriber:      cfg.VAPIDSubject,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             3600,
		})
		if err != nil {
			Sugar.Warnf("push to endpoint failed: %v", err)
			continue
		}
		if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
			// subscription expired on the push service side
			db.Delete(&models.PushSubscription{}, sub.ID)
		}
		_ = resp.Body.Close()
	}
}
