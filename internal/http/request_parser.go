// This file holds the query-string parsing shared by the handlers. Invalid
// optional values fall back to defaults; required ones produce errors.

package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finview/internal/core"
	"finview/internal/views"
)

// DefaultInvestmentLimit is the round-up step used when none is given.
const DefaultInvestmentLimit = 50

var errMissingParam = errors.New("missing required parameter")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month, defaulting to the month of ref.
func ParseMonthParams(query url.Values, ref time.Time) MonthParams {
	params := MonthParams{Year: ref.Year(), Month: int(ref.Month())}
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}
	return params
}

// ParseEventsRequest builds the events page input. Both start_date and
// end_date switch to a custom range; otherwise period (default "M") is
// resolved against ref.
func ParseEventsRequest(period string, query url.Values, ref time.Time) views.EventsRequest {
	req := views.EventsRequest{
		Card: strings.TrimSpace(query.Get("card")),
	}
	start := strings.TrimSpace(query.Get("start_date"))
	end := strings.TrimSpace(query.Get("end_date"))
	if start != "" && end != "" {
		req.Period = core.PeriodCustom
		req.StartDate, req.EndDate = start, end
		return req
	}

	period = strings.ToUpper(strings.TrimSpace(period))
	if period == "" {
		period = string(core.PeriodMonth)
	}
	req.Period = core.Period(period)
	req.Date = ref.Format(core.DateLayout)
	return req
}

// ParseInvestmentParams reads month (YYYY-MM, default month of ref) and limit
// (default DefaultInvestmentLimit).
func ParseInvestmentParams(query url.Values, ref time.Time) (string, int, error) {
	month := strings.TrimSpace(query.Get("month"))
	if month == "" {
		month = ref.Format(core.MonthLayout)
	}
	limit := DefaultInvestmentLimit
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", 0, fmt.Errorf("invalid limit %q", v)
		}
		limit = n
	}
	return month, limit, nil
}

// requireParam returns the trimmed value of a mandatory query parameter.
func requireParam(query url.Values, name string) (string, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", errMissingParam, name)
	}
	return v, nil
}
