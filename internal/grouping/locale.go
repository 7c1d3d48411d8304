package grouping

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"
)

// Locale holds the headings used for date groups.
type Locale struct {
	Today     string
	Yesterday string
	LastWeek  string
	ThisMonth string
	// Month is a format string receiving month and year, e.g. "Tháng %02d/%d".
	Month    string
	Weekdays [7]string // indexed by time.Weekday
}

var (
	Vietnamese = Locale{
		Today:     "Hôm nay",
		Yesterday: "Hôm qua",
		LastWeek:  "Tuần trước",
		ThisMonth: "Tháng này",
		Month:     "Tháng %02d/%d",
		Weekdays: [7]string{
			"chủ nhật", "thứ hai", "thứ ba", "thứ tư", "thứ năm", "thứ sáu", "thứ bảy",
		},
	}

	English = Locale{
		Today:     "Today",
		Yesterday: "Yesterday",
		LastWeek:  "Last week",
		ThisMonth: "This month",
		Month:     "Month %02d/%d",
		Weekdays: [7]string{
			"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
		},
	}
)

// LocaleByName returns the locale for "vi" or "en"; anything else gets Vietnamese.
func LocaleByName(name string) Locale {
	if name == "en" {
		return English
	}
	return Vietnamese
}

func (l Locale) dayLabel(d time.Time) string {
	return fmt.Sprintf("%s, %02d/%02d", capitalize(l.Weekdays[d.Weekday()]), d.Day(), int(d.Month()))
}

func (l Locale) monthLabel(d time.Time) string {
	return fmt.Sprintf(l.Month, int(d.Month()), d.Year())
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
