package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finview/internal/log"
)

const (
	filePrefix      = "report_"
	fileExtension   = ".json"
	timestampLayout = "20060102_150405"
)

// Notifier is told about every report written to disk.
type Notifier interface {
	NotifyReportSaved(ctx context.Context, report, path string, rows int) error
}

// Saver writes report results as indented JSON files.
type Saver struct {
	dir      string
	notifier Notifier
	log      *log.Logger
	now      func() time.Time
}

// NewSaver creates a saver writing into dir. notifier may be nil.
func NewSaver(dir string, notifier Notifier, logger *log.Logger) *Saver {
	if logger == nil {
		logger = log.Discard()
	}
	return &Saver{
		dir:      dir,
		notifier: notifier,
		log:      logger.WithComponent(log.ComponentReports),
		now:      time.Now,
	}
}

// FileName returns the generated artifact name for report.
func (s *Saver) FileName(report string) string {
	return filePrefix + report + "_" + s.now().Format(timestampLayout) + fileExtension
}

// Save serializes rows for report. An empty fileName generates a timestamped
// name inside the reports directory; otherwise fileName is used as given and
// its parent directories are created. The written path is returned.
func (s *Saver) Save(ctx context.Context, report, fileName string, rows any, count int) (string, error) {
	path := fileName
	if path == "" {
		path = filepath.Join(s.dir, s.FileName(report))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return "", fmt.Errorf("encode report %s: %w", report, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", report, err)
	}
	s.log.InfoContext(ctx, "Report saved", log.FieldReport, report, log.FieldReportPath, path, log.FieldRows, count)

	if s.notifier != nil {
		if err := s.notifier.NotifyReportSaved(ctx, report, path, count); err != nil {
			s.log.WarnContext(ctx, "Report notification failed",
				log.FieldOperation, log.OpPublish,
				log.FieldReport, report,
				log.FieldError, err)
		}
	}
	return path, nil
}
