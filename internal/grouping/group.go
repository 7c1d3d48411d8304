// Package grouping buckets transactions under relative-date headings
// ("Hôm nay", "Hôm qua", one heading per day of this week, "Tuần trước",
// "Tháng này", then one heading per month) for list rendering.
package grouping

import (
	"fmt"
	"time"
)

// Dated is anything carrying a transaction date.
type Dated interface {
	TransactionDate() time.Time
}

// Group is a run of items sharing one bucket.
type Group[T any] struct {
	Label string
	// Key is unique per bucket, unlike Label which repeats across years.
	Key   string
	Items []T
}

const (
	KeyToday     = "today"
	KeyYesterday = "yesterday"
	KeyLastWeek  = "lastweek"
	KeyThisMonth = "thismonth"
)

// GroupByDate classifies every item against now and groups them by bucket.
//
// Groups appear in the order their key is first seen in items, and items keep
// their input order inside a group. The output is therefore only
// chronological when items are sorted newest first, which callers are
// expected to do. An item's calendar day is read in its own location; now
// decides what "today" is.
func GroupByDate[T Dated](items []T, now time.Time, loc Locale) []Group[T] {
	b := newBucketer(now, loc)

	groups := make([]Group[T], 0)
	index := make(map[string]int)
	for _, item := range items {
		key, label := b.classify(item.TransactionDate())
		if i, ok := index[key]; ok {
			groups[i].Items = append(groups[i].Items, item)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group[T]{Label: label, Key: key, Items: []T{item}})
	}
	return groups
}

// Flatten concatenates the items of groups in order.
func Flatten[T any](groups []Group[T]) []T {
	var out []T
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out
}

type bucketer struct {
	loc           Locale
	today         time.Time
	weekStart     time.Time
	lastWeekStart time.Time
}

func newBucketer(now time.Time, loc Locale) bucketer {
	today := civilDay(now)
	// Weeks start on Monday.
	offset := (int(today.Weekday()) + 6) % 7
	weekStart := today.AddDate(0, 0, -offset)
	return bucketer{
		loc:           loc,
		today:         today,
		weekStart:     weekStart,
		lastWeekStart: weekStart.AddDate(0, 0, -7),
	}
}

func (b bucketer) classify(t time.Time) (key, label string) {
	day := civilDay(t)
	switch {
	case day.Equal(b.today):
		return KeyToday, b.loc.Today
	case day.Equal(b.today.AddDate(0, 0, -1)):
		return KeyYesterday, b.loc.Yesterday
	case !day.Before(b.weekStart) && day.Before(b.weekStart.AddDate(0, 0, 7)):
		return "thisweek-" + day.Format("2006-01-02"), b.loc.dayLabel(day)
	case !day.Before(b.lastWeekStart) && day.Before(b.weekStart):
		return KeyLastWeek, b.loc.LastWeek
	case day.Year() == b.today.Year() && day.Month() == b.today.Month():
		return KeyThisMonth, b.loc.ThisMonth
	default:
		return fmt.Sprintf("month-%04d-%02d", day.Year(), int(day.Month())), b.loc.monthLabel(day)
	}
}

// civilDay maps t to midnight UTC of its calendar day so that day arithmetic
// is free of DST and offset effects.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
