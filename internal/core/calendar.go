package core

import "time"

// MonthStart returns the first day of t's month at midnight.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthRange returns the first and last instant (23:59:59) of t's month.
// The end is derived from the start of the following month, so month
// lengths and leap years need no table.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := MonthStart(t)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

// TrailingThreeMonths returns the window from the start of the month three
// calendar months before t to the end of t's month.
func TrailingThreeMonths(t time.Time) (time.Time, time.Time) {
	_, end := MonthRange(t)
	year, month := t.Year(), int(t.Month())
	if month <= 3 {
		year, month = year-1, month+9
	} else {
		month -= 3
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, t.Location()), end
}

// StartOfDay truncates t to midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of t's day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// Weekday returns the day index with Monday as 0 and Sunday as 6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
