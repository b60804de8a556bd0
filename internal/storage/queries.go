package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type TransactionRow struct {
	ID            int64
	Fingerprint   string
	OperationDate string
	PaymentDate   string
	CardNumber    string
	Status        string
	Amount        string
	Currency      string
	Cashback      string
	Category      string
	MCC           string
	Description   string
	ImportID      string
}

const insertTransaction = `
INSERT OR IGNORE INTO transactions (
    fingerprint, operation_date, payment_date, card_number, status, amount,
    currency, cashback, category, mcc, description, import_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertTransaction reports whether a new row was written; rows with a known
// fingerprint are ignored.
func (q *Queries) InsertTransaction(ctx context.Context, r TransactionRow) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertTransaction,
		r.Fingerprint, r.OperationDate, r.PaymentDate, r.CardNumber, r.Status, r.Amount,
		r.Currency, r.Cashback, r.Category, r.MCC, r.Description, r.ImportID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const listTransactions = `
SELECT id, fingerprint, operation_date, payment_date, card_number, status, amount,
       currency, cashback, category, mcc, description, import_id
FROM transactions
ORDER BY id`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Fingerprint, &i.OperationDate, &i.PaymentDate, &i.CardNumber,
			&i.Status, &i.Amount, &i.Currency, &i.Cashback, &i.Category, &i.MCC, &i.Description,
			&i.ImportID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&n)
	return n, err
}

const createImport = `INSERT INTO imports (id, source, row_count, inserted) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateImport(ctx context.Context, id, source string, rowCount, inserted int64) error {
	_, err := q.db.ExecContext(ctx, createImport, id, source, rowCount, inserted)
	return err
}
