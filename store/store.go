// Package store implements the persistence interfaces of the streak and bird
// engines on top of gorm. The core packages stay free of the ORM; handlers
// construct their services with this implementation.
package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/songbirdapp/songbird/models"
)

// Store bundles the gorm-backed data access used by the progression engine.
type Store struct {
	db *gorm.DB
}

// New wraps a gorm DB handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// EntryDays returns every entry date for the user. Dates come back at whatever
// granularity the column holds; the streak calculator normalizes them.
func (s *Store) EntryDays(userID uint) ([]time.Time, error) {
	var dates []time.Time
	err := s.db.Model(&models.Entry{}).
		Where("user_id = ?", userID).
		Order("date ASC").
		Pluck("date", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// EntryCount returns the number of distinct logged days for the user.
func (s *Store) EntryCount(userID uint) (int, error) {
	var count int64
	err := s.db.Model(&models.Entry{}).
		Where("user_id = ?", userID).
		Distinct("date").
		Count(&count).Error
	return int(count), err
}

// State loads the user's streak row, creating a zero-value one on first use.
func (s *Store) State(userID uint) (*models.StreakState, error) {
	var state models.StreakState
	err := s.db.First(&state, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.StreakState{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState upserts the denormalized streak row. Last write wins: concurrent
// writers recompute from the same entry set and converge.
func (s *Store) SaveState(state *models.StreakState) error {
	state.UpdatedAt = time.Now()
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_streak", "longest_streak", "last_entry_date",
			"last_restored_at", "restored_day", "updated_at",
		}),
	}).Create(state).Error
}

// Unlocks returns all bird unlock rows for the user.
func (s *Store) Unlocks(userID uint) ([]models.BirdUnlock, error) {
	var rows []models.BirdUnlock
	err := s.db.Where("user_id = ?", userID).Order("unlocked_at ASC").Find(&rows).Error
	return rows, err
}

// InsertIfAbsent writes a bird unlock row unless one already exists. The
// composite unique index on (user_id, bird_id) makes concurrent inserts for
// the same bird collapse to a single row; the conflict is not an error.
func (s *Store) InsertIfAbsent(userID uint, birdID, method string) (bool, error) {
	row := models.BirdUnlock{
		UserID:     userID,
		BirdID:     birdID,
		Method:     method,
		UnlockedAt: time.Now(),
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "bird_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
