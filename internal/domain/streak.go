package domain

import (
	"slices"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Day identifies a UTC calendar day as the number of days since the Unix epoch.
// Time of day and the instant's original zone are not part of the identity.
type Day int64

// CalendarDay returns the UTC calendar day containing t.
func CalendarDay(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	return d.Time().Format(time.DateOnly)
}

// CurrentStreakAt counts the consecutive calendar days ending at the most
// recent completion. The run is broken (zero) when the most recent completion
// is more than one day before now. The walk stops at the first gap.
func CurrentStreakAt(dates []time.Time, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	days := make([]Day, len(dates))
	for i, t := range dates {
		days[i] = CalendarDay(t)
	}
	slices.Sort(days)
	slices.Reverse(days)

	if CalendarDay(now)-days[0] > 1 {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] != 1 {
			break
		}
		streak++
	}
	return streak
}
