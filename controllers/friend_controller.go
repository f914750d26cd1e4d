package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/models"
	"github.com/songbirdapp/songbird/utils"
)

// FriendController manages friend requests and the friend list.
type FriendController struct {
	DB *gorm.DB
}

func NewFriendController(db *gorm.DB) *FriendController {
	return &FriendController{DB: db}
}

// areFriends reports whether an accepted request links the two users in either
// direction.
func areFriends(db *gorm.DB, a, b uint) bool {
	var count int64
	err := db.Model(&models.FriendRequest{}).
		Where("status = ?", models.FriendAccepted).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)", a, b, b, a).
		Count(&count).Error
	return err == nil && count > 0
}

// friendIDsOf returns the user ids of all accepted friends.
func friendIDsOf(db *gorm.DB, userID uint) ([]uint, error) {
	var rows []models.FriendRequest
	err := db.Where("status = ?", models.FriendAccepted).
		Where("requester_id = ? OR addressee_id = ?", userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		if r.RequesterID == userID {
			ids = append(ids, r.AddresseeID)
		} else {
			ids = append(ids, r.RequesterID)
		}
	}
	return utils.UniqueUint(ids), nil
}

type friendRequestBody struct {
	Username string `json:"username" binding:"required"`
}

// Request sends a friend request by username.
func (c *FriendController) Request(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var req friendRequestBody
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "username is required")
		return
	}

	var target models.User
	err := c.DB.Where("username = ?", req.Username).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40400, "user not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to look up user")
		return
	}
	if target.ID == userID {
		utils.Error(ctx, http.StatusBadRequest, 40003, "you cannot add yourself")
		return
	}
	if areFriends(c.DB, userID, target.ID) {
		utils.Error(ctx, http.StatusConflict, 40901, "already friends")
		return
	}

	var pending int64
	c.DB.Model(&models.FriendRequest{}).
		Where("status = ?", models.FriendPending).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
			userID, target.ID, target.ID, userID).
		Count(&pending)
	if pending > 0 {
		utils.Error(ctx, http.StatusConflict, 40902, "a request between you is already pending")
		return
	}

	fr := models.FriendRequest{
		RequesterID: userID,
		AddresseeID: target.ID,
		Status:      models.FriendPending,
	}
	if err := c.DB.Create(&fr).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to send request")
		return
	}

	var requester models.User
	if err := c.DB.First(&requester, userID).Error; err == nil {
		actorID := userID
		notif := models.Notification{
			UserID:  target.ID,
			Kind:    models.NotifFriendRequest,
			ActorID: &actorID,
			Body:    fmt.Sprintf("%s wants to be friends", requester.Username),
		}
		if err := c.DB.Create(&notif).Error; err == nil {
			go utils.SendPushToUser(c.DB, target.ID, utils.PushPayload{
				Title: "Friend request",
				Body:  notif.Body,
				URL:   "/friends",
			})
		}
	}

	utils.Success(ctx, fr)
}

// Respond accepts or declines a pending request addressed to the caller.
func (c *FriendController) Respond(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	requestID := ctx.Param("id")

	var body struct {
		Accept bool `json:"accept"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "invalid request body")
		return
	}

	var fr models.FriendRequest
	err := c.DB.First(&fr, "id = ?", requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40400, "request not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load request")
		return
	}
	if fr.AddresseeID != userID {
		utils.Error(ctx, http.StatusForbidden, 40300, "this request is not addressed to you")
		return
	}
	if fr.Status != models.FriendPending {
		utils.Error(ctx, http.StatusConflict, 40903, "request already handled")
		return
	}

	status := models.FriendDeclined
	if body.Accept {
		status = models.FriendAccepted
	}
	if err := c.DB.Model(&fr).Update("status", status).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to update request")
		return
	}

	if body.Accept {
		var addressee models.User
		if err := c.DB.First(&addressee, userID).Error; err == nil {
			actorID := userID
			notif := models.Notification{
				UserID:  fr.RequesterID,
				Kind:    models.NotifFriendAccept,
				ActorID: &actorID,
				Body:    fmt.Sprintf("%s accepted your friend request", addressee.Username),
			}
			if err := c.DB.Create(&notif).Error; err == nil {
				go utils.SendPushToUser(c.DB, fr.RequesterID, utils.PushPayload{
					Title: "Friend request accepted",
					Body:  notif.Body,
					URL:   "/friends",
				})
			}
		}
	}

	utils.Success(ctx, gin.H{"status": status})
}

// List returns accepted friends and pending requests involving the caller.
func (c *FriendController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var accepted []models.FriendRequest
	err := c.DB.Preload("Requester").Preload("Addressee").
		Where("status = ?", models.FriendAccepted).
		Where("requester_id = ? OR addressee_id = ?", userID, userID).
		Find(&accepted).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load friends")
		return
	}

	var pending []models.FriendRequest
	err = c.DB.Preload("Requester").
		Where("status = ? AND addressee_id = ?", models.FriendPending, userID).
		Find(&pending).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load requests")
		return
	}

	friends := make([]models.User, 0, len(accepted))
	for _, fr := range accepted {
		if fr.RequesterID == userID {
			friends = append(friends, fr.Addressee)
		} else {
			friends = append(friends, fr.Requester)
		}
	}

	utils.Success(ctx, gin.H{"friends": friends, "pending": pending})
}

// Remove deletes the friendship between the caller and the given user.
func (c *FriendController) Remove(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	otherID := ctx.Param("id")

	res := c.DB.Where("status = ?", models.FriendAccepted).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
			userID, otherID, otherID, userID).
		Delete(&models.FriendRequest{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to remove friend")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40400, "friendship not found")
		return
	}
	utils.Success(ctx, nil)
}
