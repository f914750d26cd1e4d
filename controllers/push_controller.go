package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/songbirdapp/songbird/models"
	"github.com/songbirdapp/songbird/utils"
)

// PushController manages web-push subscriptions.
type PushController struct {
	DB *gorm.DB
}

func NewPushController(db *gorm.DB) *PushController {
	return &PushController{DB: db}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// Subscribe registers or refreshes a browser push subscription. Endpoints are
// unique; re-subscribing updates the keys and owner in place.
func (c *PushController) Subscribe(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var req subscribeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "endpoint and keys are required")
		return
	}

	sub := models.PushSubscription{
		UserID:    userID,
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		UserAgent: ctx.GetHeader("User-Agent"),
		CreatedAt: time.Now(),
	}
	err := c.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "user_agent"}),
	}).Create(&sub).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to save subscription")
		return
	}
	utils.Success(ctx, nil)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// Unsubscribe removes a push endpoint owned by the caller.
func (c *PushController) Unsubscribe(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var req unsubscribeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "endpoint is required")
		return
	}

	if err := c.DB.Where("user_id = ? AND endpoint = ?", userID, req.Endpoint).
		Delete(&models.PushSubscription{}).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to remove subscription")
		return
	}
	utils.Success(ctx, nil)
}
