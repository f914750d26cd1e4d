package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/models"
	"github.com/songbirdapp/songbird/streak"
	"github.com/songbirdapp/songbird/utils"
)

// StatsController serves public aggregate numbers for the landing page.
type StatsController struct {
	DB *gorm.DB
}

func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{DB: db}
}

type publicStats struct {
	Users        int64 `json:"users"`
	Entries      int64 `json:"entries"`
	Comments     int64 `json:"comments"`
	LoggersToday int64 `json:"loggers_today"`
	Waitlist     int64 `json:"waitlist"`
}

const statsCacheKey = "stats:public"

// Get returns cached counts, recomputing at most once per five minutes.
func (c *StatsController) Get(ctx *gin.Context) {
	if data, ok := utils.CacheGetBytes(ctx.Request.Context(), statsCacheKey); ok {
		var cached publicStats
		if err := json.Unmarshal(data, &cached); err == nil {
			utils.Success(ctx, cached)
			return
		}
	}

	var stats publicStats
	if err := c.DB.Model(&models.User{}).Count(&stats.Users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load stats")
		return
	}
	if err := c.DB.Model(&models.Entry{}).Count(&stats.Entries).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load stats")
		return
	}
	if err := c.DB.Model(&models.Comment{}).Count(&stats.Comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load stats")
		return
	}
	if err := c.DB.Model(&models.Entry{}).
		Where("date = ?", streak.Day(time.Now())).
		Distinct("user_id").
		Count(&stats.LoggersToday).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load stats")
		return
	}
	if err := c.DB.Model(&models.WaitlistSignup{}).Count(&stats.Waitlist).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load stats")
		return
	}

	utils.CacheSetJSON(ctx.Request.Context(), statsCacheKey, stats, 5*time.Minute)
	utils.Success(ctx, stats)
}
