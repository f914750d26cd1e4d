package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/birds"
	"github.com/songbirdapp/songbird/models"
	"github.com/songbirdapp/songbird/store"
	"github.com/songbirdapp/songbird/streak"
	"github.com/songbirdapp/songbird/utils"
)

// getUserID extracts the authenticated user id set by the auth middleware.
func getUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get("user_id")
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "not authenticated")
		return 0, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "not authenticated")
		return 0, false
	}
	return id, true
}

// requireUser verifies the token's user still exists. A 404 here means the
// account row is gone (or not provisioned yet); clients retry or re-onboard.
func requireUser(ctx *gin.Context, db *gorm.DB, userID uint) bool {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load user")
		return false
	}
	if count == 0 {
		utils.Error(ctx, http.StatusNotFound, 40401, "no account found for this identity")
		return false
	}
	return true
}

// parsePagination reads page/page_size query params with sane bounds.
func parsePagination(ctx *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// parseToday resolves the client's local "today". The query param lets the
// frontend pin day boundaries to the user's timezone; absent, server time wins.
func parseToday(ctx *gin.Context) (time.Time, bool) {
	raw := ctx.Query("today")
	if raw == "" {
		return time.Now(), true
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "today must be formatted as YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

// birdStats assembles the unlock predicate inputs for a user.
func birdStats(db *gorm.DB, st *store.Store, userID uint, currentStreak int, today time.Time) (birds.Stats, error) {
	count, err := st.EntryCount(userID)
	if err != nil {
		return birds.Stats{}, err
	}

	daysSinceFirst := 0
	var first models.Entry
	err = db.Where("user_id = ?", userID).Order("date ASC").First(&first).Error
	if err == nil {
		daysSinceFirst = int(streak.Day(today).Sub(streak.Day(first.Date)).Hours()/24) + 1
		if daysSinceFirst < 0 {
			daysSinceFirst = 0
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return birds.Stats{}, err
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return birds.Stats{}, err
	}

	return birds.Stats{
		EntryCount:     count,
		CurrentStreak:  currentStreak,
		DaysSinceFirst: daysSinceFirst,
		Premium:        user.IsPremium,
	}, nil
}
