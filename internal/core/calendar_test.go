package core

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func TestMonthRange(t *testing.T) {
	cases := []struct {
		name       string
		in         time.Time
		start, end time.Time
	}{
		{"leap february", day(2024, 2, 15), day(2024, 2, 1), at(2024, 2, 29, 23, 59, 59)},
		{"common february", day(2023, 2, 15), day(2023, 2, 1), at(2023, 2, 28, 23, 59, 59)},
		{"december", at(2023, 12, 31, 18, 0, 0), day(2023, 12, 1), at(2023, 12, 31, 23, 59, 59)},
		{"thirty days", day(2024, 4, 1), day(2024, 4, 1), at(2024, 4, 30, 23, 59, 59)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := MonthRange(tc.in)
			if !start.Equal(tc.start) || !end.Equal(tc.end) {
				t.Fatalf("got %v..%v, want %v..%v", start, end, tc.start, tc.end)
			}
		})
	}
}

func TestTrailingThreeMonths(t *testing.T) {
	cases := []struct {
		in    time.Time
		year  int
		month time.Month
	}{
		{day(2024, 3, 15), 2023, time.December},
		{day(2024, 1, 15), 2023, time.October},
		{day(2024, 4, 30), 2024, time.January},
		{day(2024, 12, 1), 2024, time.September},
	}
	for _, tc := range cases {
		start, end := TrailingThreeMonths(tc.in)
		if start.Year() != tc.year || start.Month() != tc.month || start.Day() != 1 {
			t.Fatalf("%v: start %v, want %d-%02d-01", tc.in, start, tc.year, tc.month)
		}
		_, monthEnd := MonthRange(tc.in)
		if !end.Equal(monthEnd) {
			t.Fatalf("%v: end %v, want %v", tc.in, end, monthEnd)
		}
	}
}

func TestWeekday(t *testing.T) {
	// 2024-03-11 is a Monday.
	for i := 0; i < 7; i++ {
		if got := Weekday(day(2024, 3, 11+i)); got != i {
			t.Fatalf("day %d: got %d", 11+i, got)
		}
	}
}
