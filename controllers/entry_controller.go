package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/birds"
	"github.com/songbirdapp/songbird/models"
	"github.com/songbirdapp/songbird/store"
	"github.com/songbirdapp/songbird/streak"
	"github.com/songbirdapp/songbird/utils"
)

// EntryController handles the daily song log.
type EntryController struct {
	DB *gorm.DB
}

func NewEntryController(db *gorm.DB) *EntryController {
	return &EntryController{DB: db}
}

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_]{2,64})`)

type createEntryRequest struct {
	Date       string `json:"date"`
	SongTitle  string `json:"song_title" binding:"required"`
	Artist     string `json:"artist" binding:"required"`
	Album      string `json:"album"`
	ArtworkURL string `json:"artwork_url"`
	PreviewURL string `json:"preview_url"`
	Note       string `json:"note"`
}

// Create logs today's song. One entry per calendar day; a second attempt for
// the same day is rejected. A successful create refreshes the streak and
// evaluates bird unlocks in the same request.
func (c *EntryController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	var req createEntryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "song_title and artist are required")
		return
	}

	day := streak.Day(time.Now())
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40001, "date must be formatted as YYYY-MM-DD")
			return
		}
		day = streak.Day(parsed)
	}
	if day.After(streak.Day(time.Now())) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "cannot log a song for a future day")
		return
	}

	var existing int64
	if err := c.DB.Model(&models.Entry{}).
		Where("user_id = ? AND date = ?", userID, day).
		Count(&existing).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to check existing entry")
		return
	}
	if existing > 0 {
		utils.Error(ctx, http.StatusConflict, 40900, "you already logged a song for this day")
		return
	}

	entry := models.Entry{
		UserID:     userID,
		Date:       day,
		SongTitle:  req.SongTitle,
		Artist:     req.Artist,
		Album:      req.Album,
		ArtworkURL: req.ArtworkURL,
		PreviewURL: req.PreviewURL,
		Note:       utils.Sanitize(req.Note),
	}
	if err := c.DB.Create(&entry).Error; err != nil {
		// unique index race with a concurrent create for the same day
		utils.Sugar.Warnf("create entry for user %d: %v", userID, err)
		utils.Error(ctx, http.StatusConflict, 40900, "you already logged a song for this day")
		return
	}

	st := store.New(c.DB)
	svc := streak.NewService(st)
	res, err := svc.Refresh(userID)
	if err != nil {
		utils.Sugar.Warnf("refresh streak after entry for user %d: %v", userID, err)
	}

	birdSvc := birds.NewService(st)
	var newUnlocks []string
	if stats, err := birdStats(c.DB, st, userID, res.CurrentStreak, time.Now()); err == nil {
		newUnlocks, err = birdSvc.CheckAndUnlock(userID, stats)
		if err != nil {
			utils.Sugar.Warnf("check unlocks after entry for user %d: %v", userID, err)
		}
	}
	bc := &BirdController{DB: c.DB}
	for _, id := range newUnlocks {
		bc.announceUnlock(userID, id)
	}

	c.notifyMentions(userID, &entry)
	utils.TrackEvent(c.DB, userID, models.EventEntryLogged, fmt.Sprintf(`{"entry_id":%d}`, entry.ID))

	utils.Success(ctx, gin.H{
		"entry":          entry,
		"current_streak": res.CurrentStreak,
		"new_unlocks":    newUnlocks,
	})
}

// notifyMentions resolves @username tokens in the note and notifies each
// mentioned user once.
func (c *EntryController) notifyMentions(authorID uint, entry *models.Entry) {
	names := mentionPattern.FindAllStringSubmatch(entry.Note, -1)
	if len(names) == 0 {
		return
	}
	seen := map[string]struct{}{}
	var author models.User
	if err := c.DB.First(&author, authorID).Error; err != nil {
		return
	}
	for _, m := range names {
		username := m[1]
		if _, dup := seen[username]; dup {
			continue
		}
		seen[username] = struct{}{}

		var target models.User
		if err := c.DB.Where("username = ?", username).First(&target).Error; err != nil {
			continue
		}
		if target.ID == authorID {
			continue
		}
		entryID := entry.ID
		actorID := authorID
		notif := models.Notification{
			UserID:  target.ID,
			Kind:    models.NotifMention,
			ActorID: &actorID,
			EntryID: &entryID,
			Body:    fmt.Sprintf("%s mentioned you in their song note", author.Username),
		}
		if err := c.DB.Create(&notif).Error; err != nil {
			utils.Sugar.Warnf("write mention notification: %v", err)
			continue
		}
		go utils.SendPushToUser(c.DB, target.ID, utils.PushPayload{
			Title: "You were mentioned",
			Body:  notif.Body,
			URL:   fmt.Sprintf("/entries/%d", entry.ID),
		})
	}
}

// List returns the caller's entries, newest first.
func (c *EntryController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	page, pageSize := parsePagination(ctx)

	var total int64
	if err := c.DB.Model(&models.Entry{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load entries")
		return
	}

	var entries []models.Entry
	err := c.DB.Where("user_id = ?", userID).
		Order("date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load entries")
		return
	}

	utils.Success(ctx, gin.H{
		"entries":   entries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Today returns the caller's entry for the current day, if any.
func (c *EntryController) Today(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	today, ok := parseToday(ctx)
	if !ok {
		return
	}

	var entry models.Entry
	err := c.DB.Where("user_id = ? AND date = ?", userID, streak.Day(today)).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Success(ctx, gin.H{"entry": nil})
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load entry")
		return
	}
	utils.Success(ctx, gin.H{"entry": entry})
}

// OnThisDay returns the caller's entries from the same calendar day in
// previous years.
func (c *EntryController) OnThisDay(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	today, ok := parseToday(ctx)
	if !ok {
		return
	}
	day := streak.Day(today)

	var entries []models.Entry
	err := c.DB.Where("user_id = ? AND MONTH(date) = ? AND DAY(date) = ? AND date < ?",
		userID, int(day.Month()), day.Day(), day).
		Order("date DESC").
		Find(&entries).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load entries")
		return
	}
	utils.Success(ctx, gin.H{"entries": entries})
}

// Detail dispatches GET /entries/:id. The static paths today and on-this-day
// live under the same segment as the numeric id, which the router cannot mix.
func (c *EntryController) Detail(ctx *gin.Context) {
	switch ctx.Param("id") {
	case "today":
		c.Today(ctx)
	case "on-this-day":
		c.OnThisDay(ctx)
	default:
		c.Get(ctx)
	}
}

// Get returns one entry. Entries are visible to their author and accepted
// friends.
func (c *EntryController) Get(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	entryID := ctx.Param("id")

	var entry models.Entry
	err := c.DB.Preload("User").Preload("Comments").Preload("Comments.User").
		First(&entry, "id = ?", entryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40400, "entry not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load entry")
		return
	}

	if entry.UserID != userID && !areFriends(c.DB, userID, entry.UserID) {
		utils.Error(ctx, http.StatusForbidden, 40300, "entry is only visible to friends")
		return
	}

	var vibes []models.Vibe
	if err := c.DB.Where("entry_id = ?", entry.ID).Find(&vibes).Error; err != nil {
		utils.Sugar.Warnf("load vibes for entry %d: %v", entry.ID, err)
	}

	utils.Success(ctx, gin.H{"entry": entry, "vibes": vibes})
}

// Delete removes the caller's own entry and recomputes the streak.
func (c *EntryController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	entryID := ctx.Param("id")

	res := c.DB.Where("id = ? AND user_id = ?", entryID, userID).Delete(&models.Entry{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to delete entry")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40400, "entry not found")
		return
	}

	if _, err := streak.NewService(store.New(c.DB)).Refresh(userID); err != nil {
		utils.Sugar.Warnf("refresh streak after delete for user %d: %v", userID, err)
	}
	utils.Success(ctx, nil)
}

// FriendsToday returns accepted friends' entries for the current day.
func (c *EntryController) FriendsToday(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	today, ok := parseToday(ctx)
	if !ok {
		return
	}

	friendIDs, err := friendIDsOf(c.DB, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load feed")
		return
	}
	if len(friendIDs) == 0 {
		utils.Success(ctx, gin.H{"entries": []models.Entry{}})
		return
	}

	var entries []models.Entry
	err = c.DB.Preload("User").
		Where("user_id IN ? AND date = ?", friendIDs, streak.Day(today)).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load feed")
		return
	}

	utils.Success(ctx, gin.H{"entries": entries})
}
