package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/models"
	"github.com/songbirdapp/songbird/store"
	"github.com/songbirdapp/songbird/streak"
	"github.com/songbirdapp/songbird/utils"
)

// StreakController serves streak reads and the restore operation.
type StreakController struct {
	DB *gorm.DB
}

func NewStreakController(db *gorm.DB) *StreakController {
	return &StreakController{DB: db}
}

type streakResponse struct {
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	IsActive      bool   `json:"is_active"`
	LastEntryDate string `json:"last_entry_date,omitempty"`
	CanRestore    bool   `json:"can_restore"`
}

// Get recomputes the user's streak from entry history and returns it together
// with restore eligibility.
func (c *StreakController) Get(ctx *gin.Context) {
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

	svc := streak.NewService(store.New(c.DB)).WithClock(func() time.Time { return today })
	res, err := svc.Refresh(userID)
	if err != nil {
		utils.Sugar.Errorf("refresh streak for user %d: %v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to compute streak")
		return
	}
	canRestore, err := svc.CanRestore(userID)
	if err != nil {
		utils.Sugar.Warnf("check restore eligibility for user %d: %v", userID, err)
	}

	resp := streakResponse{
		CurrentStreak: res.CurrentStreak,
		LongestStreak: res.LongestStreak,
		IsActive:      res.IsActive,
		CanRestore:    canRestore,
	}
	if res.LastEntryDate != nil {
		resp.LastEntryDate = res.LastEntryDate.Format("2006-01-02")
	}
	utils.Success(ctx, resp)
}

type restoreRejection struct {
	Reason string `json:"reason"`
}

type streakActionRequest struct {
	Action string `json:"action" binding:"required"`
}

// Restore handles POST /streak. The only supported action bridges the single
// missed day in the user's latest break; business rejections come back as 400
// with a machine-readable reason.
func (c *StreakController) Restore(ctx *gin.Context) {
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

	var req streakActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Action != "restore" {
		utils.Error(ctx, http.StatusBadRequest, 40000, `action must be "restore"`)
		return
	}

	svc := streak.NewService(store.New(c.DB)).WithClock(func() time.Time { return today })
	newStreak, err := svc.Restore(userID)
	if err != nil {
		switch {
		case errors.Is(err, streak.ErrNothingToRestore):
			utils.Respond(ctx, http.StatusBadRequest, 40010, "no restorable gap in your streak", restoreRejection{Reason: "NothingToRestore"})
		case errors.Is(err, streak.ErrAlreadyRestored):
			utils.Respond(ctx, http.StatusBadRequest, 40011, "this break was already restored", restoreRejection{Reason: "AlreadyRestoredRecently"})
		default:
			utils.Sugar.Errorf("restore streak for user %d: %v", userID, err)
			utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to restore streak")
		}
		return
	}

	utils.TrackEvent(c.DB, userID, models.EventStreakRestored, "")
	utils.Success(ctx, gin.H{"success": true, "new_streak": newStreak})
}
