package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/models"
	"github.com/songbirdapp/songbird/utils"
)

// WaitlistController handles pre-launch email signups with referral codes.
type WaitlistController struct {
	DB *gorm.DB
}

func NewWaitlistController(db *gorm.DB) *WaitlistController {
	return &WaitlistController{DB: db}
}

type waitlistRequest struct {
	Email   string `json:"email" binding:"required,email"`
	RefCode string `json:"ref_code"`
}

// Join adds an email to the waitlist, credits the referrer and sends a welcome
// mail. Re-joining with a known email returns the existing position.
func (c *WaitlistController) Join(ctx *gin.Context) {
	var req waitlistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "a valid email is required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !utils.AllowAction(ctx.Request.Context(), "waitlist", ctx.ClientIP(), 10, time.Hour) {
		utils.Error(ctx, http.StatusTooManyRequests, 42900, "too many signups from this address, try later")
		return
	}

	var existing models.WaitlistSignup
	err := c.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		utils.Success(ctx, c.position(&existing))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to join waitlist")
		return
	}

	signup := models.WaitlistSignup{
		Email:   email,
		RefCode: uuid.NewString(),
	}
	if err := c.DB.Create(&signup).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to join waitlist")
		return
	}

	if req.RefCode != "" {
		if err := c.DB.Model(&models.WaitlistSignup{}).
			Where("ref_code = ?", req.RefCode).
			UpdateColumn("referrals", gorm.Expr("referrals + 1")).Error; err != nil {
			utils.Sugar.Warnf("credit referral %s: %v", req.RefCode, err)
		}
	}

	go func() {
		body := fmt.Sprintf("Welcome to the SongBird waitlist!\n\nShare your referral code to move up the list: %s\n", signup.RefCode)
		if err := utils.SendMail(email, "You're on the SongBird waitlist 🐦", body); err != nil {
			utils.Sugar.Debugf("send waitlist mail to %s: %v", email, err)
		}
	}()

	utils.Success(ctx, c.position(&signup))
}

// Count returns the public waitlist size.
func (c *WaitlistController) Count(ctx *gin.Context) {
	var total int64
	if err := c.DB.Model(&models.WaitlistSignup{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load waitlist")
		return
	}
	utils.Success(ctx, gin.H{"count": total})
}

// Status returns the position for a signed-up email.
func (c *WaitlistController) Status(ctx *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(ctx.Query("email")))
	if email == "" {
		utils.Error(ctx, http.StatusBadRequest, 40000, "email query parameter is required")
		return
	}

	var signup models.WaitlistSignup
	err := c.DB.Where("email = ?", email).First(&signup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40400, "email is not on the waitlist")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load waitlist")
		return
	}
	utils.Success(ctx, c.position(&signup))
}

type waitlistPosition struct {
	Position  int64  `json:"position"`
	RefCode   string `json:"ref_code"`
	Referrals int    `json:"referrals"`
}

// position ranks signups by referral count, earlier signups winning ties.
func (c *WaitlistController) position(s *models.WaitlistSignup) waitlistPosition {
	var ahead int64
	c.DB.Model(&models.WaitlistSignup{}).
		Where("referrals > ? OR (referrals = ? AND id < ?)", s.Referrals, s.Referrals, s.ID).
		Count(&ahead)
	return waitlistPosition{
		Position:  ahead + 1,
		RefCode:   s.RefCode,
		Referrals: s.Referrals,
	}
}
