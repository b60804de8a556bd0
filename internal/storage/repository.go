// Package storage keeps imported transactions in a local sqlite ledger.
//
// Amounts are stored as decimal text and dates in core.DateTimeLayout, so a
// load reproduces the imported dataset exactly.
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"finview/internal/core"
	"finview/internal/log"
	"finview/internal/sources"
)

type Ledger struct {
	db      *sql.DB
	queries *Queries
	log     *log.Logger
}

var _ sources.Loader = (*Ledger)(nil)

// ImportResult summarizes one Import call. Inserted is lower than Rows when
// some rows were already in the ledger.
type ImportResult struct {
	ID       string
	Source   string
	Rows     int
	Inserted int
}

func Open(dbPath string, logger *log.Logger) (*Ledger, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	l := &Ledger{
		db:      db,
		queries: New(db),
		log:     logger.WithComponent(log.ComponentStorage),
	}
	l.log.Debug("Ledger opened", "path", dbPath, "schema_version", version)
	return l, nil
}

func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

func (l *Ledger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *Ledger) Count(ctx context.Context) (int64, error) {
	return l.queries.CountTransactions(ctx)
}

// Import writes ds in one transaction. Re-importing the same statement is a
// no-op: identical rows are matched by fingerprint, counting repeats within
// ds so genuine duplicates survive.
func (l *Ledger) Import(ctx context.Context, source string, ds core.Dataset) (ImportResult, error) {
	res := ImportResult{ID: uuid.NewString(), Source: source, Rows: ds.Len()}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	q := l.queries.WithTx(tx)
	seen := make(map[string]int, ds.Len())
	for _, t := range ds.Rows() {
		row := toRow(t)
		seen[row.Fingerprint]++
		row.Fingerprint += "#" + strconv.Itoa(seen[row.Fingerprint])
		row.ImportID = res.ID

		inserted, err := q.InsertTransaction(ctx, row)
		if err != nil {
			return res, fmt.Errorf("insert transaction: %w", err)
		}
		if inserted {
			res.Inserted++
		}
	}
	if err := q.CreateImport(ctx, res.ID, source, int64(res.Rows), int64(res.Inserted)); err != nil {
		return res, fmt.Errorf("record import: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit import: %w", err)
	}

	l.log.InfoContext(ctx, "Transactions imported",
		log.FieldOperation, log.OpImport,
		log.FieldSource, source,
		log.FieldRows, res.Rows,
		"inserted", res.Inserted,
		"import_id", res.ID)
	return res, nil
}

// Load returns every stored transaction in import order.
func (l *Ledger) Load(ctx context.Context) (core.Dataset, error) {
	rows, err := l.queries.ListTransactions(ctx)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		t, err := fromRow(r)
		if err != nil {
			l.log.WarnContext(ctx, "Skipping unreadable ledger row", "id", r.ID, log.FieldError, err)
			continue
		}
		out = append(out, t)
	}
	l.log.DebugContext(ctx, "Ledger loaded", log.FieldRows, len(out))
	return core.NewDataset(out), nil
}

func toRow(t core.Transaction) TransactionRow {
	r := TransactionRow{
		OperationDate: formatTime(t.OperationDate),
		PaymentDate:   formatTime(t.PaymentDate),
		CardNumber:    t.CardNumber,
		Status:        string(t.Status),
		Amount:        t.Amount.String(),
		Currency:      t.Currency,
		Cashback:      t.Cashback.String(),
		Category:      t.Category,
		MCC:           t.MCC,
		Description:   t.Description,
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		r.OperationDate, r.PaymentDate, r.CardNumber, r.Status, r.Amount,
		r.Currency, r.Cashback, r.Category, r.MCC, r.Description,
	}, "\x1f")))
	r.Fingerprint = hex.EncodeToString(sum[:])
	return r
}

func fromRow(r TransactionRow) (core.Transaction, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", r.Amount, err)
	}
	cashback, err := decimal.NewFromString(r.Cashback)
	if err != nil {
		cashback = decimal.Zero
	}
	return core.Transaction{
		OperationDate: parseTime(r.OperationDate),
		PaymentDate:   parseTime(r.PaymentDate),
		CardNumber:    r.CardNumber,
		Status:        core.Status(r.Status),
		Amount:        amount,
		Currency:      r.Currency,
		Cashback:      cashback,
		Category:      r.Category,
		MCC:           r.MCC,
		Description:   r.Description,
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(core.DateTimeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(core.DateTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
