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

// CommentController handles comments and vibe reactions on entries.
type CommentController struct {
	DB *gorm.DB
}

func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{DB: db}
}

// loadVisibleEntry fetches an entry the caller may interact with: their own or
// an accepted friend's.
func (c *CommentController) loadVisibleEntry(ctx *gin.Context, userID uint) (*models.Entry, bool) {
	entryID := ctx.Param("id")
	var entry models.Entry
	err := c.DB.First(&entry, "id = ?", entryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40400, "entry not found")
		return nil, false
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load entry")
		return nil, false
	}
	if entry.UserID != userID && !areFriends(c.DB, userID, entry.UserID) {
		utils.Error(ctx, http.StatusForbidden, 40300, "entry is only visible to friends")
		return nil, false
	}
	return &entry, true
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// Create adds a comment to a friend's (or own) entry and notifies the author.
func (c *CommentController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	entry, ok := c.loadVisibleEntry(ctx, userID)
	if !ok {
		return
	}

	var req createCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "content is required")
		return
	}

	comment := models.Comment{
		EntryID: entry.ID,
		UserID:  userID,
		Content: utils.Sanitize(req.Content),
	}
	if err := c.DB.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to create comment")
		return
	}

	if entry.UserID != userID {
		var commenter models.User
		if err := c.DB.First(&commenter, userID).Error; err == nil {
			actorID := userID
			entryID := entry.ID
			notif := models.Notification{
				UserID:  entry.UserID,
				Kind:    models.NotifComment,
				ActorID: &actorID,
				EntryID: &entryID,
				Body:    fmt.Sprintf("%s commented on your song", commenter.Username),
			}
			if err := c.DB.Create(&notif).Error; err == nil {
				go utils.SendPushToUser(c.DB, entry.UserID, utils.PushPayload{
					Title: "New comment",
					Body:  notif.Body,
					URL:   fmt.Sprintf("/entries/%d", entry.ID),
				})
			}
		}
	}

	c.DB.Preload("User").First(&comment, comment.ID)
	utils.Success(ctx, comment)
}

// List returns comments for an entry, oldest first.
func (c *CommentController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	entry, ok := c.loadVisibleEntry(ctx, userID)
	if !ok {
		return
	}

	var comments []models.Comment
	err := c.DB.Preload("User").
		Where("entry_id = ?", entry.ID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load comments")
		return
	}
	utils.Success(ctx, comments)
}

// Delete removes the caller's own comment.
func (c *CommentController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	commentID := ctx.Param("commentId")

	res := c.DB.Where("id = ? AND user_id = ?", commentID, userID).Delete(&models.Comment{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to delete comment")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40400, "comment not found")
		return
	}
	utils.Success(ctx, nil)
}

type vibeRequest struct {
	Kind string `json:"kind"`
}

// ToggleVibe adds or removes the caller's reaction on an entry. Re-sending the
// same kind removes it; a different kind replaces it.
func (c *CommentController) ToggleVibe(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	entry, ok := c.loadVisibleEntry(ctx, userID)
	if !ok {
		return
	}

	var req vibeRequest
	_ = ctx.ShouldBindJSON(&req)
	if req.Kind == "" {
		req.Kind = "fire"
	}

	var existing models.Vibe
	err := c.DB.Where("entry_id = ? AND user_id = ?", entry.ID, userID).First(&existing).Error
	switch {
	case err == nil && existing.Kind == req.Kind:
		if err := c.DB.Delete(&existing).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to remove vibe")
			return
		}
		utils.Success(ctx, gin.H{"vibed": false})
		return
	case err == nil:
		if err := c.DB.Model(&existing).Update("kind", req.Kind).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to update vibe")
			return
		}
		utils.Success(ctx, gin.H{"vibed": true, "kind": req.Kind})
		return
	case !errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load vibe")
		return
	}

	vibe := models.Vibe{EntryID: entry.ID, UserID: userID, Kind: req.Kind}
	if err := c.DB.Create(&vibe).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to save vibe")
		return
	}

	if entry.UserID != userID {
		var reactor models.User
		if err := c.DB.First(&reactor, userID).Error; err == nil {
			actorID := userID
			entryID := entry.ID
			notif := models.Notification{
				UserID:  entry.UserID,
				Kind:    models.NotifVibe,
				ActorID: &actorID,
				EntryID: &entryID,
				Body:    fmt.Sprintf("%s vibed with your song", reactor.Username),
			}
			_ = c.DB.Create(&notif).Error
		}
	}

	utils.Success(ctx, gin.H{"vibed": true, "kind": req.Kind})
}
