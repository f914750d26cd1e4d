// Package birds holds the static bird theme catalog and the unlock evaluator
// that grants birds from streaks, entry counts, tenure, and purchases.
package birds

import "fmt"

// Kind tags how a bird is unlocked. Each definition carries only the fields
// relevant to its kind.
type Kind int

const (
	// KindDefault birds are unlocked for every account from creation.
	KindDefault Kind = iota
	// KindStreak birds unlock at a consecutive-day streak threshold.
	KindStreak
	// KindEntries birds unlock at a total logged-days threshold.
	KindEntries
	// KindTenure birds unlock after a number of days since the first entry.
	KindTenure
)

func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindStreak:
		return "streak"
	case KindEntries:
		return "entries"
	case KindTenure:
		return "tenure"
	}
	return "unknown"
}

// Definition describes one unlockable bird theme. Threshold is zero for
// default birds. A non-zero PriceCents makes the bird purchasable before its
// threshold is met; PremiumGrant birds are also granted to premium members.
type Definition struct {
	ID           string
	Name         string
	ShortName    string
	Kind         Kind
	Threshold    int
	PriceCents   int
	PremiumGrant bool
	Condition    string
}

// Registry is the ordered bird catalog. Declaration order is the stable
// tie-break whenever two birds are equally close to unlocking. Immutable at
// runtime; loaded once at process start.
var Registry = []Definition{
	{
		ID:        "american-robin",
		Name:      "American Robin",
		ShortName: "Robin",
		Kind:      KindDefault,
		Condition: "Default bird (everyone starts with this)",
	},
	{
		ID:        "eastern-bluebird",
		Name:      "Eastern Bluebird",
		ShortName: "Bluebird",
		Kind:      KindStreak,
		Threshold: 7,
		Condition: "7-day streak",
	},
	{
		ID:        "northern-cardinal",
		Name:      "Northern Cardinal",
		ShortName: "Cardinal",
		Kind:      KindEntries,
		Threshold: 30,
		Condition: "30 entries total",
	},
	{
		ID:        "american-goldfinch",
		Name:      "American Goldfinch",
		ShortName: "Goldfinch",
		Kind:      KindStreak,
		Threshold: 30,
		Condition: "30-day streak",
	},
	{
		ID:        "black-capped-chickadee",
		Name:      "Black-capped Chickadee",
		ShortName: "Chickadee",
		Kind:      KindEntries,
		Threshold: 100,
		Condition: "100 entries total",
	},
	{
		ID:        "baltimore-oriole",
		Name:      "Baltimore Oriole",
		ShortName: "Oriole",
		Kind:      KindStreak,
		Threshold: 100,
		Condition: "100-day streak",
	},
	{
		ID:        "house-finch",
		Name:      "House Finch",
		ShortName: "Finch",
		Kind:      KindEntries,
		Threshold: 200,
		Condition: "200 entries total",
	},
	{
		ID:         "indigo-bunting",
		Name:       "Indigo Bunting",
		ShortName:  "Bunting",
		Kind:       KindStreak,
		Threshold:  50,
		PriceCents: 299,
		Condition:  "50-day streak, or purchase",
	},
	{
		ID:        "cedar-waxwing",
		Name:      "Cedar Waxwing",
		ShortName: "Waxwing",
		Kind:      KindTenure,
		Threshold: 365,
		Condition: "1 year on SongBird",
	},
	{
		ID:           "painted-bunting",
		Name:         "Painted Bunting",
		ShortName:    "Painted",
		Kind:         KindStreak,
		Threshold:    365,
		PremiumGrant: true,
		Condition:    "365-day streak, or Premium",
	},
}

// Lookup returns the definition for a bird id. Registry lookups never fail for
// catalog birds; the boolean reports unknown ids.
func Lookup(birdID string) (Definition, bool) {
	for _, def := range Registry {
		if def.ID == birdID {
			return def, true
		}
	}
	return Definition{}, false
}

// DefaultBirdID is the bird every account owns from creation.
func DefaultBirdID() string {
	for _, def := range Registry {
		if def.Kind == KindDefault {
			return def.ID
		}
	}
	// The registry always declares a default bird; reaching here is a
	// programming error.
	panic(fmt.Sprintf("birds: registry has no default bird among %d definitions", len(Registry)))
}

// met reports whether the definition's threshold is satisfied by the stats.
func (d Definition) met(stats Stats) bool {
	switch d.Kind {
	case KindDefault:
		return true
	case KindStreak:
		return stats.CurrentStreak >= d.Threshold
	case KindEntries:
		return stats.EntryCount >= d.Threshold
	case KindTenure:
		return stats.DaysSinceFirst >= d.Threshold
	}
	return false
}

// progress returns the current/required pair toward the threshold.
func (d Definition) progress(stats Stats) (current int, label string) {
	switch d.Kind {
	case KindStreak:
		return stats.CurrentStreak, fmt.Sprintf("%d/%d day streak", stats.CurrentStreak, d.Threshold)
	case KindEntries:
		return stats.EntryCount, fmt.Sprintf("%d/%d entries", stats.EntryCount, d.Threshold)
	case KindTenure:
		return stats.DaysSinceFirst, fmt.Sprintf("%d/%d days", stats.DaysSinceFirst, d.Threshold)
	}
	return 0, ""
}
