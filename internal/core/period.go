package core

import (
	"fmt"
	"strings"
	"time"
)

// Period selects how a window is derived from a reference date.
type Period string

const (
	PeriodWeek   Period = "W"
	PeriodMonth  Period = "M"
	PeriodYear   Period = "Y"
	PeriodAll    Period = "ALL"
	PeriodCustom Period = "CUSTOM"
)

// EpochFloorYear is the year the ALL window starts in.
const EpochFloorYear = 2000

// Window is an inclusive [Start, End] range of operation timestamps.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return w.Start.Format(DateTimeLayout) + " .. " + w.End.Format(DateTimeLayout)
}

// ParsePeriod normalizes a period code. Unknown codes yield ErrInvalidPeriod.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodAll, PeriodCustom:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Resolve computes the window for a non-custom period ending on ref's day.
func Resolve(ref time.Time, p Period) (Window, error) {
	end := EndOfDay(ref)
	day := StartOfDay(ref)
	switch p {
	case PeriodWeek:
		return Window{Start: day.AddDate(0, 0, -6), End: end}, nil
	case PeriodMonth:
		return Window{Start: MonthStart(ref), End: end}, nil
	case PeriodYear:
		return Window{Start: time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, ref.Location()), End: end}, nil
	case PeriodAll:
		return Window{Start: time.Date(EpochFloorYear, time.January, 1, 0, 0, 0, 0, ref.Location()), End: end}, nil
	case PeriodCustom:
		return Window{}, ErrMissingCustomRange
	}
	return Window{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
}

// Custom builds a window from start's midnight to end's 23:59:59.
func Custom(start, end time.Time) Window {
	return Window{Start: StartOfDay(start), End: EndOfDay(end)}
}

// ParseWindow resolves textual inputs. date is only consulted for non-custom
// periods; startDate and endDate are both required for PeriodCustom.
func ParseWindow(date string, p Period, startDate, endDate string) (Window, error) {
	if p == PeriodCustom {
		if strings.TrimSpace(startDate) == "" || strings.TrimSpace(endDate) == "" {
			return Window{}, ErrMissingCustomRange
		}
		start, err := ParseDate(startDate)
		if err != nil {
			return Window{}, err
		}
		end, err := ParseDate(endDate)
		if err != nil {
			return Window{}, err
		}
		return Custom(start, end), nil
	}
	if _, err := ParsePeriod(string(p)); err != nil {
		return Window{}, err
	}
	ref, err := ParseDate(date)
	if err != nil {
		return Window{}, err
	}
	return Resolve(ref, p)
}
