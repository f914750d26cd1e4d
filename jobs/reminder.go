// Package jobs holds the scheduled background work: the daily reminder push
// sent to subscribers who have not logged a song yet.
package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/config"
	"github.com/songbirdapp/songbird/models"
	"github.com/songbirdapp/songbird/streak"
	"github.com/songbirdapp/songbird/utils"
)

// StartScheduler registers the cron jobs and starts the scheduler. The
// returned cron can be stopped on shutdown.
func StartScheduler(db *gorm.DB) *cron.Cron {
	c := cron.New()

	spec := config.Get().ReminderCron
	if _, err := c.AddFunc(spec, func() { SendDailyReminders(db) }); err != nil {
		utils.Sugar.Errorf("register reminder job with spec %q: %v", spec, err)
	}

	c.Start()
	return c
}

// SendDailyReminders pushes a nudge to every user who has push subscriptions,
// has reminders enabled and has not logged today's song.
func SendDailyReminders(db *gorm.DB) {
	today := streak.Day(time.Now())

	var userIDs []uint
	err := db.Model(&models.PushSubscription{}).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		utils.Sugar.Errorf("load reminder recipients: %v", err)
		return
	}

	sent := 0
	for _, userID := range userIDs {
		var pref models.NotificationPreference
		if err := db.First(&pref, "user_id = ?", userID).Error; err == nil && !pref.DailyReminder {
			continue
		}

		var logged int64
		if err := db.Model(&models.Entry{}).
			Where("user_id = ? AND date = ?", userID, today).
			Count(&logged).Error; err != nil || logged > 0 {
			continue
		}

		utils.SendPushToUser(db, userID, utils.PushPayload{
			Title: "What's your song today? 🎵",
			Body:  "Log today's song to keep your streak alive.",
			URL:   "/",
		})
		sent++
	}
	utils.Sugar.Infof("daily reminders sent to %d users", sent)
}
