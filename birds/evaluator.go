package birds

import (
	"time"

	"github.com/songbirdapp/songbird/models"
)

// Stats are the inputs every unlock predicate is evaluated against.
type Stats struct {
	EntryCount     int
	CurrentStreak  int
	DaysSinceFirst int
	Premium        bool
}

// Progress describes how far a locked bird is from unlocking.
type Progress struct {
	Current    int    `json:"current"`
	Required   int    `json:"required"`
	Percentage int    `json:"percentage"`
	Label      string `json:"label"`
}

// Status is the full unlock snapshot for one bird.
type Status struct {
	BirdID       string     `json:"bird_id"`
	Name         string     `json:"name"`
	ShortName    string     `json:"short_name"`
	Condition    string     `json:"unlock_condition"`
	IsUnlocked   bool       `json:"is_unlocked"`
	UnlockMethod string     `json:"unlock_method,omitempty"`
	UnlockedAt   *time.Time `json:"unlocked_at,omitempty"`
	Progress     *Progress  `json:"progress,omitempty"`
	CanPurchase  bool       `json:"can_purchase"`
	PriceCents   int        `json:"price_cents,omitempty"`
}

// Store is the persistence surface for unlock rows. InsertIfAbsent must be
// atomic on the (userID, birdID) pair: a conflict with an existing row reports
// inserted=false with no error.
type Store interface {
	Unlocks(userID uint) ([]models.BirdUnlock, error)
	InsertIfAbsent(userID uint, birdID, method string) (inserted bool, err error)
}

// Service evaluates the registry against a user's unlock rows and stats.
type Service struct {
	store Store
}

// NewService creates a bird unlock service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// InitializeDefault ensures the default bird has an unlock row. Safe to call on
// every request; a no-op when the row already exists.
func (s *Service) InitializeDefault(userID uint) error {
	_, err := s.store.InsertIfAbsent(userID, DefaultBirdID(), models.UnlockMethodDefault)
	return err
}

// CheckAndUnlock persists unlock rows for every threshold bird the stats now
// satisfy and returns the newly unlocked ids. Idempotent: a second call with
// the same stats returns an empty list because the rows already exist.
func (s *Service) CheckAndUnlock(userID uint, stats Stats) ([]string, error) {
	newUnlocks := []string{}
	for _, def := range Registry {
		if def.Kind == KindDefault || !def.met(stats) {
			continue
		}
		inserted, err := s.store.InsertIfAbsent(userID, def.ID, models.UnlockMethodMilestone)
		if err != nil {
			return newUnlocks, err
		}
		if inserted {
			newUnlocks = append(newUnlocks, def.ID)
		}
	}
	if stats.Premium {
		for _, def := range Registry {
			if !def.PremiumGrant {
				continue
			}
			inserted, err := s.store.InsertIfAbsent(userID, def.ID, models.UnlockMethodPremium)
			if err != nil {
				return newUnlocks, err
			}
			if inserted {
				newUnlocks = append(newUnlocks, def.ID)
			}
		}
	}
	return newUnlocks, nil
}

// Statuses returns the full registry cross-referenced against the user's
// unlock rows. When the store is unavailable it degrades to the default-only
// view instead of failing, so the listing endpoint still renders.
func (s *Service) Statuses(userID uint, stats Stats) []Status {
	unlocks, err := s.store.Unlocks(userID)
	if err != nil {
		return DefaultStatuses()
	}

	byBird := make(map[string]models.BirdUnlock, len(unlocks))
	for _, u := range unlocks {
		byBird[u.BirdID] = u
	}

	statuses := make([]Status, 0, len(Registry))
	for _, def := range Registry {
		st := Status{
			BirdID:     def.ID,
			Name:       def.Name,
			ShortName:  def.ShortName,
			Condition:  def.Condition,
			PriceCents: def.PriceCents,
		}
		if def.Kind == KindDefault {
			st.IsUnlocked = true
			st.UnlockMethod = models.UnlockMethodDefault
		} else if row, ok := byBird[def.ID]; ok {
			st.IsUnlocked = true
			st.UnlockMethod = row.Method
			at := row.UnlockedAt
			st.UnlockedAt = &at
		} else {
			current, label := def.progress(stats)
			pct := 0
			if def.Threshold > 0 {
				pct = current * 100 / def.Threshold
				if pct > 100 {
					pct = 100
				}
			}
			st.Progress = &Progress{
				Current:    current,
				Required:   def.Threshold,
				Percentage: pct,
				Label:      label,
			}
			st.CanPurchase = def.PriceCents > 0
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// DefaultStatuses is the degraded snapshot used when unlock rows cannot be
// read: only the default bird shows as unlocked.
func DefaultStatuses() []Status {
	statuses := make([]Status, 0, len(Registry))
	for _, def := range Registry {
		st := Status{
			BirdID:    def.ID,
			Name:      def.Name,
			ShortName: def.ShortName,
			Condition: def.Condition,
		}
		if def.Kind == KindDefault {
			st.IsUnlocked = true
			st.UnlockMethod = models.UnlockMethodDefault
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// NextUnlockable picks the locked bird nearest to unlocking: highest progress
// percentage first, registry declaration order breaking ties. Returns nil when
// everything is unlocked or no locked bird has measurable progress.
func NextUnlockable(statuses []Status) *Status {
	var best *Status
	for i := range statuses {
		st := &statuses[i]
		if st.IsUnlocked || st.Progress == nil {
			continue
		}
		if best == nil || st.Progress.Percentage > best.Progress.Percentage {
			best = st
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}
