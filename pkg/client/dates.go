package client

import (
	"time"
)

// DateLayout is the format of report dates.
const DateLayout = "2006-01-02"

// FormatDate formats t as YYYY-MM-DD in t's location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// LastMonth returns the first and last day of the calendar month before now.
func LastMonth(now time.Time) (start, end string) {
	firstThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastPrevMonth := firstThisMonth.AddDate(0, 0, -1)
	firstPrevMonth := time.Date(lastPrevMonth.Year(), lastPrevMonth.Month(), 1, 0, 0, 0, 0, now.Location())
	return FormatDate(firstPrevMonth), FormatDate(lastPrevMonth)
}

// LastNDays returns the range of n days ending on now, inclusive.
// n below 1 is treated as 1.
func LastNDays(now time.Time, n int) (start, end string) {
	if n < 1 {
		n = 1
	}
	return FormatDate(now.AddDate(0, 0, -(n - 1))), FormatDate(now)
}
