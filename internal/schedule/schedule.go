// Package schedule provides the pure date arithmetic behind recurring
// funding and recurring goal due dates. Functions here have no side effects
// and are safe to call any number of times.
package schedule

import (
	"fmt"
	"time"

	"stacknest/internal/models"
)

// Next returns the occurrence strictly after t for the given frequency.
// Calendar-month steps clamp to the target month's length (Jan 31 + 1 month
// is the last day of February), and longer cadences compose single-month
// steps, so twelve monthly advances land on the same date as one annual
// advance for any starting date.
func Next(t time.Time, freq models.Frequency) (time.Time, error) {
	switch freq {
	case models.FrequencyDaily:
		return t.AddDate(0, 0, 1), nil
	case models.FrequencyEveryOtherDay:
		return t.AddDate(0, 0, 2), nil
	case models.FrequencyWeekly:
		return t.AddDate(0, 0, 7), nil
	case models.FrequencyBiWeekly:
		return t.AddDate(0, 0, 14), nil
	case models.FrequencyBiMonthly:
		return t.AddDate(0, 0, 15), nil
	case models.FrequencyMonthly:
		return addMonths(t, 1), nil
	case models.FrequencySemiAnnually:
		return addMonths(t, 6), nil
	case models.FrequencyAnnually:
		return addMonths(t, 12), nil
	}
	return time.Time{}, fmt.Errorf("unknown frequency: %q", freq)
}

// addMonths advances t one calendar month at a time, clamping the day to the
// target month's length at each step. Stepping one month n times is therefore
// identical to stepping n months at once, which keeps monthly, quarterly,
// semi-annual, and annual cadences aligned with each other.
func addMonths(t time.Time, months int) time.Time {
	for i := 0; i < months; i++ {
		t = addOneMonth(t)
	}
	return t
}

func addOneMonth(t time.Time) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	if last := daysIn(year, month+1); day > last {
		day = last
	}
	return time.Date(year, month+1, day, hour, min, sec, t.Nanosecond(), t.Location())
}

// daysIn reports the number of days in the given month; time.Date normalizes
// day zero of the following month to its last day.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextOnOrAfter finds the first occurrence of the cadence anchored at start
// that does not precede now. A start in the future is itself the next
// occurrence; a start in the past is stepped forward until it passes now.
func NextOnOrAfter(start time.Time, freq models.Frequency, now time.Time) (time.Time, error) {
	if start.After(now) {
		return start, nil
	}
	next := start
	for !next.After(now) {
		stepped, err := Next(next, freq)
		if err != nil {
			return time.Time{}, err
		}
		next = stepped
	}
	return next, nil
}

// StepPeriod advances t by one recurring goal period. Unknown periods
// default to monthly.
func StepPeriod(t time.Time, period models.RecurringPeriod) time.Time {
	switch period {
	case models.PeriodWeekly:
		return t.AddDate(0, 0, 7)
	case models.PeriodBiWeekly:
		return t.AddDate(0, 0, 14)
	case models.PeriodBiMonthly:
		return t.AddDate(0, 0, 15)
	case models.PeriodQuarterly:
		return addMonths(t, 3)
	case models.PeriodSemiAnnually:
		return addMonths(t, 6)
	case models.PeriodAnnually:
		return addMonths(t, 12)
	default:
		return addMonths(t, 1)
	}
}
