package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/songbirdapp/songbird/models"
	"github.com/songbirdapp/songbird/utils"
)

// NotificationController serves in-app notifications and push preferences.
type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// List returns the caller's notifications, newest first, with the unread count.
func (c *NotificationController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	page, pageSize := parsePagination(ctx)

	var notifications []models.Notification
	err := c.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&notifications).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load notifications")
		return
	}

	var unread int64
	c.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&unread)

	utils.Success(ctx, gin.H{
		"notifications": notifications,
		"unread":        unread,
		"page":          page,
		"page_size":     pageSize,
	})
}

type markReadRequest struct {
	IDs []uint `json:"ids"`
}

// MarkRead marks the given notifications as read, or every unread one when no
// ids are sent.
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var req markReadRequest
	_ = ctx.ShouldBindJSON(&req)
	now := time.Now()

	q := c.DB.Model(&models.Notification{}).Where("user_id = ? AND read_at IS NULL", userID)
	if len(req.IDs) > 0 {
		q = q.Where("id IN ?", req.IDs)
	}
	if err := q.Update("read_at", &now).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to mark read")
		return
	}
	utils.Success(ctx, nil)
}

// GetPreferences returns the caller's push delivery switches, defaulting to
// everything on.
func (c *NotificationController) GetPreferences(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var pref models.NotificationPreference
	err := c.DB.First(&pref, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref = models.NotificationPreference{UserID: userID, DailyReminder: true, Social: true, Milestones: true}
	} else if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load preferences")
		return
	}
	utils.Success(ctx, pref)
}

type preferencesRequest struct {
	DailyReminder *bool `json:"daily_reminder"`
	Social        *bool `json:"social"`
	Milestones    *bool `json:"milestones"`
}

// UpdatePreferences upserts the caller's push delivery switches.
func (c *NotificationController) UpdatePreferences(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var req preferencesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "invalid request body")
		return
	}

	pref := models.NotificationPreference{UserID: userID, DailyReminder: true, Social: true, Milestones: true}
	if err := c.DB.First(&pref, "user_id = ?", userID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load preferences")
		return
	}
	if req.DailyReminder != nil {
		pref.DailyReminder = *req.DailyReminder
	}
	if req.Social != nil {
		pref.Social = *req.Social
	}
	if req.Milestones != nil {
		pref.Milestones = *req.Milestones
	}
	pref.UpdatedAt = time.Now()

	err := c.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"daily_reminder", "social", "milestones", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to save preferences")
		return
	}
	utils.Success(ctx, pref)
}
