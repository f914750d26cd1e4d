package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/birds"
	"github.com/songbirdapp/songbird/models"
	"github.com/songbirdapp/songbird/store"
	"github.com/songbirdapp/songbird/streak"
	"github.com/songbirdapp/songbird/utils"
)

// BirdController serves the bird catalog with unlock statuses and lets the
// user pick their active bird.
type BirdController struct {
	DB *gorm.DB
}

func NewBirdController(db *gorm.DB) *BirdController {
	return &BirdController{DB: db}
}

type birdSummary struct {
	UnlockedCount int `json:"unlocked_count"`
	TotalCount    int `json:"total_count"`
	Percentage    int `json:"percentage"`
}

type birdListResponse struct {
	Birds        []birds.Status `json:"birds"`
	SelectedBird string         `json:"selected_bird"`
	Summary      birdSummary    `json:"summary"`
	NextUnlock   *birds.Status  `json:"next_unlock,omitempty"`
	NewUnlocks   []string       `json:"new_unlocks,omitempty"`
}

// List evaluates pending unlocks, then returns the full catalog annotated with
// the user's unlock state. Store failures degrade to the default-only view.
func (c *BirdController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	if !requireUser(ctx, c.DB, userID) {
		return
	}
	today, ok := parseToday(ctx)
	if !ok {
		return
	}

	st := store.New(c.DB)
	streakSvc := streak.NewService(st).WithClock(func() time.Time { return today })
	birdSvc := birds.NewService(st)

	if err := birdSvc.InitializeDefault(userID); err != nil {
		utils.Sugar.Warnf("initialize default bird for user %d: %v", userID, err)
	}

	currentStreak := 0
	if res, err := streakSvc.Refresh(userID); err == nil {
		currentStreak = res.CurrentStreak
	} else {
		utils.Sugar.Warnf("refresh streak for user %d: %v", userID, err)
	}

	stats, err := birdStats(c.DB, st, userID, currentStreak, today)
	if err != nil {
		utils.Sugar.Warnf("load bird stats for user %d: %v", userID, err)
	}

	newUnlocks, err := birdSvc.CheckAndUnlock(userID, stats)
	if err != nil {
		utils.Sugar.Warnf("check unlocks for user %d: %v", userID, err)
	}
	for _, id := range newUnlocks {
		c.announceUnlock(userID, id)
	}

	statuses := birdSvc.Statuses(userID, stats)
	unlocked := 0
	for _, s := range statuses {
		if s.IsUnlocked {
			unlocked++
		}
	}

	selected := birds.DefaultBirdID()
	var user models.User
	if err := c.DB.First(&user, userID).Error; err == nil && user.SelectedBird != "" {
		selected = user.SelectedBird
	}

	summary := birdSummary{UnlockedCount: unlocked, TotalCount: len(statuses)}
	if summary.TotalCount > 0 {
		summary.Percentage = unlocked * 100 / summary.TotalCount
	}

	utils.Success(ctx, birdListResponse{
		Birds:        statuses,
		SelectedBird: selected,
		Summary:      summary,
		NextUnlock:   birds.NextUnlockable(statuses),
		NewUnlocks:   newUnlocks,
	})
}

type selectBirdRequest struct {
	BirdID string `json:"bird_id" binding:"required"`
}

// Select switches the user's active bird theme. Only unlocked birds can be
// selected.
func (c *BirdController) Select(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var req selectBirdRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "bird_id is required")
		return
	}

	def, known := birds.Lookup(req.BirdID)
	if !known {
		utils.Error(ctx, http.StatusNotFound, 40400, "unknown bird")
		return
	}

	if def.Kind != birds.KindDefault {
		var count int64
		err := c.DB.Model(&models.BirdUnlock{}).
			Where("user_id = ? AND bird_id = ?", userID, req.BirdID).
			Count(&count).Error
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to check unlock")
			return
		}
		if count == 0 {
			utils.Error(ctx, http.StatusForbidden, 40300, "bird is not unlocked yet")
			return
		}
	}

	if err := c.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("selected_bird", req.BirdID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to select bird")
		return
	}
	utils.Success(ctx, gin.H{"selected_bird": req.BirdID})
}

// announceUnlock writes the in-app notification and fires the analytics event
// and push for a freshly earned bird.
func (c *BirdController) announceUnlock(userID uint, birdID string) {
	def, ok := birds.Lookup(birdID)
	if !ok {
		return
	}
	body := fmt.Sprintf("You unlocked the %s! 🐦", def.Name)
	notif := models.Notification{
		UserID: userID,
		Kind:   models.NotifBirdUnlock,
		Body:   body,
	}
	if err := c.DB.Create(&notif).Error; err != nil {
		utils.Sugar.Warnf("write unlock notification: %v", err)
	}
	utils.TrackEvent(c.DB, userID, models.EventBirdUnlocked, fmt.Sprintf(`{"bird_id":%q}`, birdID))
	go utils.SendPushToUser(c.DB, userID, utils.PushPayload{
		Title: "New bird unlocked!",
		Body:  body,
		URL:   "/birds",
	})
}
