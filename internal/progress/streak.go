package progress

import "time"

const day = 24 * time.Hour

// DaysBetween buckets the elapsed time into whole days. It ignores calendar
// boundaries: 23 hours is still the same day.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from) / day)
}

// CurrentStreakDays returns the streak after a login at now.
// Same day keeps prior, exactly one day adds one, a longer gap resets to 1.
// A user without a previous login starts at 1.
func CurrentStreakDays(lastLoginAt, now time.Time, prior int) int {
	if lastLoginAt.IsZero() {
		return 1
	}
	switch days := DaysBetween(lastLoginAt, now); {
	case days <= 0:
		return prior
	case days == 1:
		return prior + 1
	default:
		return 1
	}
}
