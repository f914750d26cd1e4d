package birds

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songbirdapp/songbird/models"
)

// fakeStore keeps unlock rows in memory and enforces the (user, bird)
// uniqueness the real table provides with its composite index.
type fakeStore struct {
	rows map[string]models.BirdUnlock
	fail bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]models.BirdUnlock{}}
}

func (f *fakeStore) Unlocks(userID uint) ([]models.BirdUnlock, error) {
	if f.fail {
		return nil, errors.New("store unavailable")
	}
	out := []models.BirdUnlock{}
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertIfAbsent(userID uint, birdID, method string) (bool, error) {
	if f.fail {
		return false, errors.New("store unavailable")
	}
	key := birdID
	if _, ok := f.rows[key]; ok {
		return false, nil
	}
	f.rows[key] = models.BirdUnlock{UserID: userID, BirdID: birdID, Method: method, UnlockedAt: time.Now()}
	return true, nil
}

func TestRegistryHasSingleDefault(t *testing.T) {
	count := 0
	for _, def := range Registry {
		if def.Kind == KindDefault {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "american-robin", DefaultBirdID())
}

func TestThresholdExactness(t *testing.T) {
	svc := NewService(newFakeStore())

	statuses := svc.Statuses(1, Stats{EntryCount: 99})
	assert.False(t, findStatus(t, statuses, "black-capped-chickadee").IsUnlocked)

	unlocked, err := svc.CheckAndUnlock(1, Stats{EntryCount: 100})
	require.NoError(t, err)
	assert.Contains(t, unlocked, "black-capped-chickadee")

	statuses = svc.Statuses(1, Stats{EntryCount: 100})
	assert.True(t, findStatus(t, statuses, "black-capped-chickadee").IsUnlocked)
}

func TestCheckAndUnlockIdempotent(t *testing.T) {
	svc := NewService(newFakeStore())
	stats := Stats{EntryCount: 35, CurrentStreak: 7}

	first, err := svc.CheckAndUnlock(1, stats)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"eastern-bluebird", "northern-cardinal"}, first)

	second, err := svc.CheckAndUnlock(1, stats)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestZeroEntriesOnlyDefaultUnlocked(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	require.NoError(t, svc.InitializeDefault(1))

	unlocked, err := svc.CheckAndUnlock(1, Stats{})
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	statuses := svc.Statuses(1, Stats{})
	count := 0
	for _, st := range statuses {
		if st.IsUnlocked {
			count++
			assert.Equal(t, "american-robin", st.BirdID)
		}
	}
	assert.Equal(t, 1, count)
}

func TestInitializeDefaultIsNoOpWhenPresent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	require.NoError(t, svc.InitializeDefault(1))
	require.NoError(t, svc.InitializeDefault(1))
	assert.Len(t, store.rows, 1)
}

func TestPremiumGrant(t *testing.T) {
	svc := NewService(newFakeStore())
	unlocked, err := svc.CheckAndUnlock(1, Stats{Premium: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"painted-bunting"}, unlocked)
}

func TestStatusesDegradeOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.fail = true
	svc := NewService(store)

	statuses := svc.Statuses(1, Stats{EntryCount: 500, CurrentStreak: 500})
	require.Len(t, statuses, len(Registry))
	for _, st := range statuses {
		if st.BirdID == "american-robin" {
			assert.True(t, st.IsUnlocked)
		} else {
			assert.False(t, st.IsUnlocked)
		}
	}
}

func TestNextUnlockablePrefersClosestThreshold(t *testing.T) {
	svc := NewService(newFakeStore())

	// Streak 6 of 7 (85%) beats entries 20 of 30 (66%).
	statuses := svc.Statuses(1, Stats{EntryCount: 20, CurrentStreak: 6})
	next := NextUnlockable(statuses)
	require.NotNil(t, next)
	assert.Equal(t, "eastern-bluebird", next.BirdID)
}

func TestNextUnlockableTieBreaksByRegistryOrder(t *testing.T) {
	svc := NewService(newFakeStore())

	// With zero progress everywhere the first declared locked bird wins.
	statuses := svc.Statuses(1, Stats{})
	next := NextUnlockable(statuses)
	require.NotNil(t, next)
	assert.Equal(t, "eastern-bluebird", next.BirdID)
}

func TestPurchasableBirdExposesPrice(t *testing.T) {
	svc := NewService(newFakeStore())
	statuses := svc.Statuses(1, Stats{})
	bunting := findStatus(t, statuses, "indigo-bunting")
	assert.True(t, bunting.CanPurchase)
	assert.Equal(t, 299, bunting.PriceCents)
}

func findStatus(t *testing.T, statuses []Status, birdID string) Status {
	t.Helper()
	for _, st := range statuses {
		if st.BirdID == birdID {
			return st
		}
	}
	t.Fatalf("bird %s not in statuses", birdID)
	return Status{}
}
