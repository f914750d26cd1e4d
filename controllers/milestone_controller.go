package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/milestones"
	"github.com/songbirdapp/songbird/store"
	"github.com/songbirdapp/songbird/streak"
	"github.com/songbirdapp/songbird/utils"
)

// MilestoneController serves the recomputed milestone report.
type MilestoneController struct {
	DB *gorm.DB
}

func NewMilestoneController(db *gorm.DB) *MilestoneController {
	return &MilestoneController{DB: db}
}

// Get evaluates all milestone definitions against the user's entry history.
// Nothing is persisted; the report is derived fresh on every call.
func (c *MilestoneController) Get(ctx *gin.Context) {
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
	dates, err := st.EntryDays(userID)
	if err != nil {
		utils.Sugar.Errorf("load entry days for user %d: %v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load milestones")
		return
	}

	svc := streak.NewService(st).WithClock(func() time.Time { return today })
	currentStreak := 0
	if res, err := svc.Refresh(userID); err == nil {
		currentStreak = res.CurrentStreak
	} else {
		utils.Sugar.Warnf("refresh streak for user %d: %v", userID, err)
	}

	utils.Success(ctx, milestones.Evaluate(dates, currentStreak, today))
}
