package reports

import (
	"context"
	"time"

	"finview/internal/core"
	"finview/internal/log"
)

// Report names, also used in generated file names.
const (
	ReportSpendingByCategory = "spending_by_category"
	ReportSpendingByWeekday  = "spending_by_weekday"
	ReportSpendingByWorkday  = "spending_by_workday"
)

// Options tune a single report run. An empty Date means today; an empty
// FileName lets the saver pick a timestamped name.
type Options struct {
	Date     string
	FileName string
}

// Service runs reports from textual input and persists every result. It
// never returns errors: invalid input yields an empty report and a log entry.
type Service struct {
	saver *Saver
	log   *log.Logger
	now   func() time.Time
}

// NewService creates a report service. A nil saver disables persistence.
func NewService(saver *Saver, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		saver: saver,
		log:   logger.WithComponent(log.ComponentReports),
		now:   time.Now,
	}
}

func (s *Service) SpendingByCategory(ctx context.Context, ds core.Dataset, category string, opts Options) []CategoryMonth {
	out := []CategoryMonth{}
	if ref, ok := s.reference(ctx, ReportSpendingByCategory, ds, opts); ok {
		out = SpendingByCategory(ds, category, ref)
		s.log.InfoContext(ctx, "Category report computed",
			log.FieldCategory, category,
			log.FieldRows, len(out))
	}
	s.persist(ctx, ReportSpendingByCategory, opts, out, len(out))
	return out
}

func (s *Service) SpendingByWeekday(ctx context.Context, ds core.Dataset, opts Options) []WeekdayAverage {
	out := []WeekdayAverage{}
	if ref, ok := s.reference(ctx, ReportSpendingByWeekday, ds, opts); ok {
		out = SpendingByWeekday(ds, ref)
		s.log.InfoContext(ctx, "Weekday report computed", log.FieldRows, len(out))
	}
	s.persist(ctx, ReportSpendingByWeekday, opts, out, len(out))
	return out
}

func (s *Service) SpendingByWorkday(ctx context.Context, ds core.Dataset, opts Options) []DayTypeAverage {
	out := []DayTypeAverage{}
	if ref, ok := s.reference(ctx, ReportSpendingByWorkday, ds, opts); ok {
		out = SpendingByWorkday(ds, ref)
		s.log.InfoContext(ctx, "Workday report computed", log.FieldRows, len(out))
	}
	s.persist(ctx, ReportSpendingByWorkday, opts, out, len(out))
	return out
}

// reference resolves the report date. It reports false when the report
// should be empty.
func (s *Service) reference(ctx context.Context, report string, ds core.Dataset, opts Options) (time.Time, bool) {
	if ds.IsEmpty() {
		s.log.WarnContext(ctx, "Empty dataset", log.FieldReport, report)
		return time.Time{}, false
	}
	if opts.Date == "" {
		// Rows carry UTC timestamps; only the clock's calendar day counts.
		n := s.now()
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC), true
	}
	ref, err := core.ParseDate(opts.Date)
	if err != nil {
		s.log.ErrorContext(ctx, "Invalid report date",
			log.FieldReport, report,
			log.FieldError, err)
		return time.Time{}, false
	}
	return ref, true
}

func (s *Service) persist(ctx context.Context, report string, opts Options, rows any, count int) {
	if s.saver == nil {
		return
	}
	if _, err := s.saver.Save(ctx, report, opts.FileName, rows, count); err != nil {
		s.log.ErrorContext(ctx, "Failed to save report",
			log.FieldOperation, log.OpSave,
			log.FieldReport, report,
			log.FieldError, err)
	}
}
