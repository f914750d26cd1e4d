package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songbirdapp/songbird/models"
)

var base = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.Local)

// day returns base + n days, at local midnight.
func day(n int) time.Time {
	return base.AddDate(0, 0, n)
}

func days(ns ...int) []time.Time {
	out := make([]time.Time, 0, len(ns))
	for _, n := range ns {
		out = append(out, day(n))
	}
	return out
}

func TestCalculateZeroEntries(t *testing.T) {
	res := Calculate(nil, day(10))
	assert.Equal(t, 0, res.CurrentStreak)
	assert.Equal(t, 0, res.LongestStreak)
	assert.False(t, res.IsActive)
	assert.Nil(t, res.LastEntryDate)
}

func TestCalculateGracePeriod(t *testing.T) {
	// Entries on D-2 and D-1 but not today: the streak is not broken yet.
	res := Calculate(days(8, 9), day(10))
	assert.Equal(t, 2, res.CurrentStreak)
	assert.True(t, res.IsActive)

	// A gap of two days breaks it.
	res = Calculate(days(8), day(10))
	assert.Equal(t, 0, res.CurrentStreak)
	assert.False(t, res.IsActive)
}

func TestCalculateLongestVsCurrent(t *testing.T) {
	// Entry days {1,2,3,7,8} with day 8 as today.
	res := Calculate(days(1, 2, 3, 7, 8), day(8))
	assert.Equal(t, 2, res.CurrentStreak)
	assert.Equal(t, 3, res.LongestStreak)
	assert.True(t, res.IsActive)
	require.NotNil(t, res.LastEntryDate)
	assert.True(t, res.LastEntryDate.Equal(day(8)))
}

func TestCalculateCollapsesSameDayEntries(t *testing.T) {
	dates := []time.Time{
		day(5).Add(8 * time.Hour),
		day(5).Add(21 * time.Hour),
		day(6).Add(3 * time.Hour),
	}
	res := Calculate(dates, day(6))
	assert.Equal(t, 2, res.CurrentStreak)
	assert.Equal(t, 2, res.LongestStreak)
}

func TestCalculateMonotonicity(t *testing.T) {
	today := day(10)
	subset := days(9, 10)
	superset := days(5, 6, 8, 9, 10)
	a := Calculate(subset, today)
	b := Calculate(superset, today)
	assert.GreaterOrEqual(t, b.CurrentStreak, a.CurrentStreak)
	assert.GreaterOrEqual(t, b.LongestStreak, a.LongestStreak)
}

// fakeStore is an in-memory Store so the service runs without the ORM.
type fakeStore struct {
	dates  []time.Time
	state  models.StreakState
	failed bool
}

func (f *fakeStore) EntryDays(userID uint) ([]time.Time, error) { return f.dates, nil }
func (f *fakeStore) State(userID uint) (*models.StreakState, error) {
	st := f.state
	return &st, nil
}
func (f *fakeStore) SaveState(state *models.StreakState) error {
	f.state = *state
	return nil
}

func newService(store *fakeStore, today time.Time) *Service {
	return NewService(store).WithClock(func() time.Time { return today })
}

func TestRefreshWritesBack(t *testing.T) {
	store := &fakeStore{dates: days(1, 2, 3, 7, 8), state: models.StreakState{UserID: 1}}
	svc := newService(store, day(8))

	res, err := svc.Refresh(1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.CurrentStreak)
	assert.Equal(t, 2, store.state.CurrentStreak)
	assert.Equal(t, 3, store.state.LongestStreak)
}

func TestRefreshNeverShrinksLongest(t *testing.T) {
	store := &fakeStore{dates: days(8), state: models.StreakState{UserID: 1, LongestStreak: 12}}
	svc := newService(store, day(8))

	res, err := svc.Refresh(1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, 12, store.state.LongestStreak)
}

func TestRestoreBridgesExactlyOneGap(t *testing.T) {
	// Entries on days 1-3, missing day 4, entry on day 5; today is day 5.
	store := &fakeStore{dates: days(1, 2, 3, 5), state: models.StreakState{UserID: 1}}
	svc := newService(store, day(5))

	before, err := svc.Refresh(1)
	require.NoError(t, err)
	assert.Equal(t, 1, before.CurrentStreak)

	ok, err := svc.CanRestore(1)
	require.NoError(t, err)
	assert.True(t, ok)

	newStreak, err := svc.Restore(1)
	require.NoError(t, err)
	assert.Equal(t, 4, newStreak, "bridged day connects but is not counted")
	require.NotNil(t, store.state.RestoredDay)
	assert.True(t, store.state.RestoredDay.Equal(day(4)))
	require.NotNil(t, store.state.LastRestoredAt)

	// A second restore of the same break is rejected.
	_, err = svc.Restore(1)
	assert.ErrorIs(t, err, ErrAlreadyRestored)

	// And recomputation keeps honoring the bridge.
	after, err := svc.Refresh(1)
	require.NoError(t, err)
	assert.Equal(t, 4, after.CurrentStreak)
}

func TestRestoreRejectsActiveStreak(t *testing.T) {
	store := &fakeStore{dates: days(4, 5), state: models.StreakState{UserID: 1}}
	svc := newService(store, day(5))

	_, err := svc.Restore(1)
	assert.ErrorIs(t, err, ErrNothingToRestore)

	ok, err := svc.CanRestore(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestoreRejectsWideGap(t *testing.T) {
	// Two missed days cannot be bridged by a single restore.
	store := &fakeStore{dates: days(1, 2, 5), state: models.StreakState{UserID: 1}}
	svc := newService(store, day(5))

	_, err := svc.Restore(1)
	assert.ErrorIs(t, err, ErrNothingToRestore)
}

func TestRestoreAllowedForNewBreak(t *testing.T) {
	// Break at day 4 restored, then a later break at day 8 is restorable too.
	restored := day(4)
	store := &fakeStore{
		dates: days(1, 2, 3, 5, 6, 7, 9),
		state: models.StreakState{UserID: 1, RestoredDay: &restored},
	}
	svc := newService(store, day(9))

	newStreak, err := svc.Restore(1)
	require.NoError(t, err)
	// Days 5,6,7 bridge through 8, extended by 9; the earlier bridged run at
	// day 4 is not re-bridged (one bridge per walk).
	assert.Equal(t, 4, newStreak)
	assert.True(t, store.state.RestoredDay.Equal(day(8)))
}
