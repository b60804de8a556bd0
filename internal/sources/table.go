package sources

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finview/internal/core"
	"finview/internal/log"
)

// Column headers of a bank statement export.
const (
	ColOperationDate   = "Дата операции"
	ColPaymentDate     = "Дата платежа"
	ColCardNumber      = "Номер карты"
	ColStatus          = "Статус"
	ColOperationAmount = "Сумма операции"
	ColOperationCurr   = "Валюта операции"
	ColPaymentAmount   = "Сумма платежа"
	ColPaymentCurr     = "Валюта платежа"
	ColCashback        = "Кэшбэк"
	ColCategory        = "Категория"
	ColMCC             = "MCC"
	ColDescription     = "Описание"
	ColBonuses         = "Бонусы (включая кэшбэк)"
	ColRounding        = "Округление на инвесткопилку"
	ColRoundedAmount   = "Сумма операции с округлением"
)

// RequiredColumns must all be present in a source header, in any order.
var RequiredColumns = []string{
	ColOperationDate, ColPaymentDate, ColCardNumber, ColStatus,
	ColOperationAmount, ColOperationCurr, ColPaymentAmount, ColPaymentCurr,
	ColCashback, ColCategory, ColMCC, ColDescription,
	ColBonuses, ColRounding, ColRoundedAmount,
}

var (
	operationLayouts = []string{core.OperationDateLayout, "02.01.2006 15:04", core.DateTimeLayout, core.DisplayDateLayout}
	paymentLayouts   = []string{core.DisplayDateLayout, core.DateLayout, core.OperationDateLayout}
)

// DecodeStats counts the rows a decode had to repair or drop.
type DecodeStats struct {
	Rows              int
	Skipped           int
	BadOperationDates int
	BadPaymentDates   int
}

// Decode turns a header row and its data rows into a dataset.
//
// A header missing any of RequiredColumns yields a *SchemaError. Rows whose
// payment amount cannot be parsed are skipped. Unparsable dates are kept as
// the zero time, which no period window contains.
func Decode(header []string, rows [][]string) (core.Dataset, DecodeStats, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return core.Dataset{}, DecodeStats{}, &SchemaError{Missing: missing}
	}

	var stats DecodeStats
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		get := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		amount, err := core.ParseAmount(get(ColPaymentAmount))
		if err != nil {
			stats.Skipped++
			continue
		}
		cashback, err := core.ParseOptionalAmount(get(ColCashback))
		if err != nil {
			cashback = decimal.Zero
		}

		opDate, ok := parseTime(get(ColOperationDate), operationLayouts)
		if !ok {
			stats.BadOperationDates++
		}
		payDate, ok := parseTime(get(ColPaymentDate), paymentLayouts)
		if !ok {
			stats.BadPaymentDates++
		}

		out = append(out, core.Transaction{
			OperationDate: opDate,
			PaymentDate:   payDate,
			CardNumber:    nullable(get(ColCardNumber)),
			Status:        core.Status(strings.ToUpper(get(ColStatus))),
			Amount:        amount,
			Currency:      nullable(get(ColPaymentCurr)),
			Cashback:      cashback,
			Category:      nullable(get(ColCategory)),
			MCC:           strings.TrimSuffix(nullable(get(ColMCC)), ".0"),
			Description:   nullable(get(ColDescription)),
		})
	}
	stats.Rows = len(out)
	return core.NewDataset(out), stats, nil
}

// Encode is the inverse of Decode, producing a header and string cells in
// RequiredColumns order.
func Encode(ds core.Dataset) ([]string, [][]string) {
	header := append([]string(nil), RequiredColumns...)
	rows := make([][]string, 0, ds.Len())
	for _, t := range ds.Rows() {
		amount := t.Amount.String()
		rows = append(rows, []string{
			formatTime(t.OperationDate, core.OperationDateLayout),
			formatTime(t.PaymentDate, core.DisplayDateLayout),
			t.CardNumber,
			string(t.Status),
			amount,
			t.Currency,
			amount,
			t.Currency,
			t.Cashback.String(),
			t.Category,
			t.MCC,
			t.Description,
			"0",
			"0",
			t.Amount.Abs().String(),
		})
	}
	return header, rows
}

// LogStats reports a finished decode.
func LogStats(ctx context.Context, logger *log.Logger, source string, stats DecodeStats) {
	logger.InfoContext(ctx, "Transactions loaded", log.FieldSource, source, log.FieldRows, stats.Rows)
	if stats.Skipped > 0 {
		logger.WarnContext(ctx, "Rows with unparsable amounts skipped", log.FieldSource, source, "skipped", stats.Skipped)
	}
	if stats.BadOperationDates > 0 {
		logger.WarnContext(ctx, "Invalid operation dates found", log.FieldSource, source, "count", stats.BadOperationDates)
	}
	if stats.BadPaymentDates > 0 {
		logger.WarnContext(ctx, "Invalid payment dates found", log.FieldSource, source, "count", stats.BadPaymentDates)
	}
}

func parseTime(s string, layouts []string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

// nullable maps the placeholders spreadsheets export for empty cells to "".
func nullable(s string) string {
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
