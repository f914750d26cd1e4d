// Package milestones maps a user's entry history and streak onto achieved
// milestones and the single nearest next one. Everything is recomputed on each
// call: no achievement rows are persisted, so duplicate-award bugs cannot
// exist, at the cost of O(entries) work per request.
package milestones

import (
	"fmt"
	"sort"
	"time"

	"github.com/songbirdapp/songbird/streak"
)

// Milestone kinds.
const (
	KindFirstEntry = "first_entry"
	KindStreak     = "streak"
	KindEntries    = "entries"
)

// Reward describes the cosmetic payoff attached to a milestone.
type Reward struct {
	Icon string `json:"icon"`
	Text string `json:"text"`
}

// Definition is one static milestone. Definitions are evaluated in declaration
// order, which must be ascending difficulty.
type Definition struct {
	Type     string
	Kind     string
	Target   int
	Message  string
	Icon     string
	Headline string
	Body     string
	Reward   *Reward
}

// Definitions is the ordered milestone catalog.
var Definitions = []Definition{
	{
		Type:     "first_entry",
		Kind:     KindFirstEntry,
		Target:   1,
		Message:  "You've started your musical journey!",
		Icon:     "🎵",
		Headline: "You've started your musical journey!",
		Body:     "Your first song is logged. The journey begins!",
	},
	{
		Type:     "streak_3",
		Kind:     KindStreak,
		Target:   3,
		Message:  "3 Days Strong! 🔥",
		Icon:     "🔥",
		Headline: "3 Days Strong! 🔥",
		Body:     "You're building a habit. Keep it up!",
	},
	{
		Type:     "streak_7",
		Kind:     KindStreak,
		Target:   7,
		Message:  "One Week Streak! 🎉",
		Icon:     "🎉",
		Headline: "One Week Streak! 🎉",
		Body:     "A week of musical memories. You've unlocked your first bird theme!",
		Reward:   &Reward{Icon: "🎨", Text: "Bluebird theme unlocked"},
	},
	{
		Type:     "streak_30",
		Kind:     KindStreak,
		Target:   30,
		Message:  "30 Days of Music! 🏆",
		Icon:     "🏆",
		Headline: "30 Days of Music! 🏆",
		Body:     "A month of your life, captured in song. This is incredible.",
		Reward:   &Reward{Icon: "🎨", Text: "Goldfinch theme unlocked"},
	},
	{
		Type:     "entries_100",
		Kind:     KindEntries,
		Target:   100,
		Message:  "100 Entries! 🎊",
		Icon:     "🎊",
		Headline: "100 Entries! 🎊",
		Body:     "You're not just tracking songs anymore, you're building a legacy.",
		Reward:   &Reward{Icon: "🏅", Text: "Exclusive 100-day badge"},
	},
	{
		Type:     "streak_365",
		Kind:     KindStreak,
		Target:   365,
		Message:  "One Year of SongBird! 🌟",
		Icon:     "🌟",
		Headline: "One Year of SongBird! 🌟",
		Body:     "365 days. 365 songs. 365 memories. You've built something extraordinary.",
		Reward:   &Reward{Icon: "🎁", Text: "Year One badge + On This Day compilation"},
	},
}

// Progress annotates the next milestone with distance-to-target copy.
type Progress struct {
	Current int    `json:"current"`
	Target  int    `json:"target"`
	Message string `json:"message"`
}

// Milestone is one evaluated definition.
type Milestone struct {
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	Achieved     bool      `json:"achieved"`
	AchievedDate string    `json:"achieved_date,omitempty"`
	Icon         string    `json:"icon,omitempty"`
	Headline     string    `json:"headline,omitempty"`
	Body         string    `json:"body,omitempty"`
	Reward       *Reward   `json:"reward,omitempty"`
	Progress     *Progress `json:"progress,omitempty"`
}

// Stats echoes the inputs the evaluation ran against.
type Stats struct {
	EntryCount     int `json:"entry_count"`
	DaysSinceFirst int `json:"days_since_first"`
}

// Report is the full narrator output: every achieved milestone plus the single
// nearest unachieved one.
type Report struct {
	Milestones []Milestone `json:"milestones"`
	Next       *Milestone  `json:"next_milestone"`
	Stats      Stats       `json:"stats"`
}

// Evaluate runs every definition against the entry history. Entry counts use
// distinct logged days, so same-day duplicates collapse. The achieved date is
// backfilled deterministically by replaying the history.
func Evaluate(dates []time.Time, currentStreak int, today time.Time) Report {
	days := distinctDays(dates)
	entryCount := len(days)

	daysSinceFirst := 0
	if entryCount > 0 {
		daysSinceFirst = int(streak.Day(today).Sub(days[0]).Hours()/24) + 1
		if daysSinceFirst < 0 {
			daysSinceFirst = 0
		}
	}

	report := Report{
		Milestones: []Milestone{},
		Stats:      Stats{EntryCount: entryCount, DaysSinceFirst: daysSinceFirst},
	}

	for _, def := range Definitions {
		achieved := false
		switch def.Kind {
		case KindFirstEntry:
			achieved = entryCount >= def.Target
		case KindStreak:
			achieved = currentStreak >= def.Target
		case KindEntries:
			achieved = entryCount >= def.Target
		}

		if achieved {
			m := Milestone{
				Type:     def.Type,
				Message:  def.Message,
				Achieved: true,
				Icon:     def.Icon,
				Headline: def.Headline,
				Body:     def.Body,
				Reward:   def.Reward,
			}
			if d, ok := achievedDate(def, days, today); ok {
				m.AchievedDate = d.Format("2006-01-02")
			}
			report.Milestones = append(report.Milestones, m)
		} else if report.Next == nil {
			report.Next = &Milestone{
				Type:     def.Type,
				Message:  def.Message,
				Achieved: false,
				Icon:     def.Icon,
				Headline: def.Headline,
				Body:     def.Body,
				Reward:   def.Reward,
				Progress: nextProgress(def, entryCount, currentStreak),
			}
		}
	}
	return report
}

// achievedDate replays the distinct-day history to find when a milestone was
// first crossed: the Nth day for entry-count milestones, the day the current
// run first reached the threshold for streak milestones, and the earliest day
// for the first entry.
func achievedDate(def Definition, days []time.Time, today time.Time) (time.Time, bool) {
	if len(days) == 0 {
		return time.Time{}, false
	}
	switch def.Kind {
	case KindFirstEntry:
		return days[0], true
	case KindEntries:
		if len(days) >= def.Target {
			return days[def.Target-1], true
		}
	case KindStreak:
		if start, length, ok := currentRun(days, today); ok && length >= def.Target {
			return start.AddDate(0, 0, def.Target-1), true
		}
	}
	return time.Time{}, false
}

// currentRun walks backward from the most recent day and returns the start and
// length of the run feeding the current streak (today may be unlogged).
func currentRun(days []time.Time, today time.Time) (time.Time, int, bool) {
	set := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	check := streak.Day(today)
	if _, ok := set[check]; !ok {
		check = check.AddDate(0, 0, -1)
	}
	if _, ok := set[check]; !ok {
		return time.Time{}, 0, false
	}
	length := 0
	var start time.Time
	for {
		if _, ok := set[check]; !ok {
			break
		}
		start = check
		length++
		check = check.AddDate(0, 0, -1)
	}
	return start, length, true
}

func nextProgress(def Definition, entryCount, currentStreak int) *Progress {
	switch def.Kind {
	case KindFirstEntry:
		msg := "Almost there!"
		if entryCount == 0 {
			msg = "Log your first song to start your journey!"
		}
		return &Progress{Current: entryCount, Target: def.Target, Message: msg}
	case KindStreak:
		remaining := def.Target - currentStreak
		msg := "Almost there!"
		if remaining > 0 {
			msg = fmt.Sprintf("%d more %s to reach %d day streak!", remaining, plural(remaining, "day", "days"), def.Target)
		}
		return &Progress{Current: currentStreak, Target: def.Target, Message: msg}
	case KindEntries:
		remaining := def.Target - entryCount
		msg := "Almost there!"
		if remaining > 0 {
			msg = fmt.Sprintf("%d more %s to go!", remaining, plural(remaining, "entry", "entries"))
		}
		return &Progress{Current: entryCount, Target: def.Target, Message: msg}
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func distinctDays(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := streak.Day(d)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
