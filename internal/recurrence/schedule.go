package recurrence

import (
	"fmt"
	"time"

	"chitieu/internal/core"
)

// Stepper moves a next date forward by one period. anchorDay is the day of
// month to aim for; steppers that do not care about it ignore it.
type Stepper func(next core.Date, anchorDay int) core.Date

var steppers = map[core.Frequency]Stepper{
	core.Daily:   func(next core.Date, _ int) core.Date { return next.AddDays(1) },
	core.Weekly:  func(next core.Date, _ int) core.Date { return next.AddDays(7) },
	core.Monthly: func(next core.Date, anchor int) core.Date { return addMonths(next, 1, anchor) },
	core.Yearly:  func(next core.Date, anchor int) core.Date { return addMonths(next, 12, anchor) },
}

// StepperFor returns the stepper of a frequency.
func StepperFor(freq core.Frequency) (Stepper, error) {
	s, ok := steppers[freq]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidFrequency, freq)
	}
	return s, nil
}

// Advance returns the occurrence after next. Month and year steps land on
// anchorDay, clamped to the last day of shorter months, so a schedule on the
// 31st goes Jan 31, Feb 28, Mar 31. anchorDay <= 0 uses next's own day.
func Advance(next core.Date, freq core.Frequency, anchorDay int) (core.Date, error) {
	step, err := StepperFor(freq)
	if err != nil {
		return core.Date{}, err
	}
	if anchorDay <= 0 {
		anchorDay = next.Day()
	}
	return step(next, anchorDay), nil
}

// IsDue reports whether the occurrence on next should be materialized at now.
func IsDue(next core.Date, now time.Time) bool {
	return !next.IsZero() && !next.After(core.DateOf(now).Time)
}

// Resume returns the first occurrence of the schedule on or after the local
// calendar day of now. Reactivated schedules start from here so the days they
// were paused are never materialized.
func Resume(next core.Date, freq core.Frequency, anchorDay int, now time.Time) (core.Date, error) {
	if next.IsZero() {
		return next, nil
	}
	today := core.DateOf(now)
	for next.Before(today.Time) {
		var err error
		if next, err = Advance(next, freq, anchorDay); err != nil {
			return core.Date{}, err
		}
	}
	return next, nil
}

func addMonths(d core.Date, months, anchorDay int) core.Date {
	first := time.Date(d.Year(), time.Month(d.Month()+months), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := anchorDay
	if day > last {
		day = last
	}
	return core.NewDate(first.Year(), int(first.Month()), day)
}
