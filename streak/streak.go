// Package streak derives a user's consecutive-day logging streak from entry
// dates and maintains the denormalized per-user StreakState row.
package streak

import (
	"errors"
	"time"

	"github.com/songbirdapp/songbird/models"
)

// Restore rejections. These are expected business-rule outcomes, not failures;
// handlers map them to 400 with a reason field.
var (
	ErrNothingToRestore = errors.New("streak has no one-day gap to restore")
	ErrAlreadyRestored  = errors.New("this break has already been restored")
)

// Result is a computed streak snapshot.
type Result struct {
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	IsActive      bool       `json:"is_active"`
	LastEntryDate *time.Time `json:"last_entry_date"`
}

// Store is the persistence surface the streak engine needs. EntryDays returns
// raw entry dates (any granularity, duplicates allowed); State never returns a
// nil state without an error.
type Store interface {
	EntryDays(userID uint) ([]time.Time, error)
	State(userID uint) (*models.StreakState, error)
	SaveState(state *models.StreakState) error
}

// Service recomputes streaks from the entry store and writes the result back.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a streak service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock overrides the time source, for tests and for honoring the client's
// local "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Day truncates t to its local midnight, the day-granularity key all streak
// math runs on.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Calculate computes the streak snapshot from raw entry dates. It is pure:
// multiple entries on one calendar day collapse to a single streak-day, a
// missing "today" does not break the streak (the day is still in progress),
// and a gap of two or more days does.
func Calculate(dates []time.Time, today time.Time) Result {
	return calculate(dates, today, nil)
}

func calculate(dates []time.Time, today time.Time, bridge *time.Time) Result {
	days := distinctDays(dates)
	if len(days) == 0 {
		return Result{}
	}

	var last time.Time
	set := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
		if d.After(last) {
			last = d
		}
	}

	todayDay := Day(today)
	yesterday := todayDay.AddDate(0, 0, -1)
	_, hasToday := set[todayDay]
	_, hasYesterday := set[yesterday]

	// Current streak: walk backward from today, stepping over today once if it
	// has not been logged yet (grace period), and over the restored bridge day
	// at most once without counting it.
	current := 0
	check := todayDay
	if !hasToday {
		check = yesterday
	}
	bridged := false
	for {
		if _, ok := set[check]; ok {
			current++
		} else if bridge != nil && !bridged && check.Equal(Day(*bridge)) {
			bridged = true
		} else {
			break
		}
		check = check.AddDate(0, 0, -1)
	}

	// Longest streak: maximum run of consecutive days over the full history.
	longest := 1
	run := 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	if current > longest {
		longest = current
	}

	lastCopy := last
	return Result{
		CurrentStreak: current,
		LongestStreak: longest,
		IsActive:      hasToday || hasYesterday,
		LastEntryDate: &lastCopy,
	}
}

// distinctDays normalizes dates to midnight, deduplicates, and sorts ascending.
func distinctDays(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := Day(d)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	// insertion sort; entry histories are small
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && days[j].Before(days[j-1]); j-- {
			days[j], days[j-1] = days[j-1], days[j]
		}
	}
	return days
}

// Refresh recomputes the user's streak from the entry store and persists it.
// The write is last-write-wins: concurrent refreshes converge because the
// computation is deterministic over the same entry set.
func (s *Service) Refresh(userID uint) (Result, error) {
	dates, err := s.store.EntryDays(userID)
	if err != nil {
		return Result{}, err
	}
	state, err := s.store.State(userID)
	if err != nil {
		return Result{}, err
	}

	res := calculate(dates, s.now(), state.RestoredDay)
	if res.LongestStreak < state.LongestStreak {
		res.LongestStreak = state.LongestStreak
	}

	state.CurrentStreak = res.CurrentStreak
	state.LongestStreak = res.LongestStreak
	state.LastEntryDate = res.LastEntryDate
	if err := s.store.SaveState(state); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Restore bridges exactly one missed day in the user's most recent break. The
// bridged day connects the runs on either side but is not itself counted as a
// logged day. Each break may be restored once; the bridged day is persisted so
// later recomputation keeps honoring it.
func (s *Service) Restore(userID uint) (int, error) {
	dates, err := s.store.EntryDays(userID)
	if err != nil {
		return 0, err
	}
	state, err := s.store.State(userID)
	if err != nil {
		return 0, err
	}

	today := s.now()
	gapDay, ok := restorableGap(dates, today)
	if !ok {
		return 0, ErrNothingToRestore
	}
	if state.RestoredDay != nil && Day(*state.RestoredDay).Equal(gapDay) {
		return 0, ErrAlreadyRestored
	}

	res := calculate(dates, today, &gapDay)
	if res.LongestStreak < state.LongestStreak {
		res.LongestStreak = state.LongestStreak
	}

	now := s.now()
	state.CurrentStreak = res.CurrentStreak
	state.LongestStreak = res.LongestStreak
	state.LastEntryDate = res.LastEntryDate
	state.LastRestoredAt = &now
	state.RestoredDay = &gapDay
	if err := s.store.SaveState(state); err != nil {
		return 0, err
	}
	return res.CurrentStreak, nil
}

// CanRestore reports whether a Restore call would currently succeed, without
// mutating anything.
func (s *Service) CanRestore(userID uint) (bool, error) {
	dates, err := s.store.EntryDays(userID)
	if err != nil {
		return false, err
	}
	state, err := s.store.State(userID)
	if err != nil {
		return false, err
	}
	gapDay, ok := restorableGap(dates, s.now())
	if !ok {
		return false, nil
	}
	if state.RestoredDay != nil && Day(*state.RestoredDay).Equal(gapDay) {
		return false, nil
	}
	return true, nil
}

// restorableGap finds the single missing day directly below the current run,
// returning it only when an older run sits immediately on its far side, i.e.
// when bridging that one day would actually lengthen the streak.
func restorableGap(dates []time.Time, today time.Time) (time.Time, bool) {
	days := distinctDays(dates)
	set := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}

	check := Day(today)
	if _, ok := set[check]; !ok {
		check = check.AddDate(0, 0, -1)
	}
	for {
		if _, ok := set[check]; !ok {
			break
		}
		check = check.AddDate(0, 0, -1)
	}
	// check is now the first missing day below the current run (or below the
	// grace day when nothing was logged today or yesterday).
	if _, ok := set[check.AddDate(0, 0, -1)]; !ok {
		return time.Time{}, false
	}
	return check, true
}
