// Package storage persists the budget ledger in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"budgeteer/internal/core"
)

// settings keys
const (
	settingIncome      = "income"
	settingSavingsGoal = "savings_goal"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
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

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateBucket implements classify.BucketCreator.
func (r *SQLiteRepository) CreateBucket(ctx context.Context, name string, limit float64) (core.Bucket, error) {
	b := core.Bucket{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(name),
		Limit: limit,
	}
	if err := b.Validate(); err != nil {
		return core.Bucket{}, err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO buckets (id, name, monthly_limit) VALUES (?, ?, ?)`,
		b.ID, b.Name, b.Limit)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.Bucket{}, core.ErrDuplicateBucket
		}
		return core.Bucket{}, fmt.Errorf("create bucket: %w", err)
	}
	return b, nil
}

// UpdateBucketLimit changes the monthly limit of an existing bucket.
func (r *SQLiteRepository) UpdateBucketLimit(ctx context.Context, id string, limit float64) error {
	if limit < 0 {
		return core.ErrNegativeAmount
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE buckets SET monthly_limit = ? WHERE id = ?`, limit, id)
	if err != nil {
		return fmt.Errorf("update bucket limit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update bucket limit: %w", err)
	}
	if n == 0 {
		return core.ErrBucketNotFound
	}
	return nil
}

// ListBuckets returns all buckets with Spent derived from the given
// month's expense transactions.
func (r *SQLiteRepository) ListBuckets(ctx context.Context, year int, month time.Month) ([]core.Bucket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.name, b.monthly_limit,
		       COALESCE((
		           SELECT SUM(-t.amount) FROM transactions t
		           WHERE t.bucket = b.name
		             AND t.amount < 0
		             AND substr(t.tx_date, 1, 7) = ?
		       ), 0)
		FROM buckets b
		ORDER BY b.created_at, b.name`,
		monthKey(year, month))
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	var buckets []core.Bucket
	for rows.Next() {
		var b core.Bucket
		if err := rows.Scan(&b.ID, &b.Name, &b.Limit, &b.Spent); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// CreateTransaction appends a ledger entry. The type is derived from the
// amount's sign when the caller left it blank.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Type == "" {
		t.Type = core.TypeForAmount(t.Amount)
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("encode tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, amount, bucket, note, tx_date, tx_type, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Amount, t.Bucket, t.Note, t.Date.UTC().Format(time.RFC3339), string(t.Type), string(tags))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

// DeleteTransaction removes a ledger entry. Corrections are delete and
// recreate, never in-place edits.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrTransactionGone
	}
	return nil
}

// GetTransaction loads a single ledger entry by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, amount, bucket, note, tx_date, tx_type, tags
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionGone
	}
	return t, err
}

// ListTransactions returns the month's ledger, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, year int, month time.Month) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, bucket, note, tx_date, tx_type, tags
		 FROM transactions
		 WHERE substr(tx_date, 1, 7) = ?
		 ORDER BY tx_date DESC, created_at DESC`,
		monthKey(year, month))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		date    string
		txType  string
		rawTags string
	)
	if err := row.Scan(&t.ID, &t.Amount, &t.Bucket, &t.Note, &date, &txType, &rawTags); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	t.Date = parsed
	t.Type = core.TransactionType(txType)

	if rawTags != "" {
		if err := json.Unmarshal([]byte(rawTags), &t.Tags); err != nil {
			return core.Transaction{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return t, nil
}

// MarkSynced records that the transaction reached the export sheet.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET synced = 1, sync_error = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// MarkSyncError flags the transaction so a later sweep can retry it.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_error = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	return nil
}

// PendingSync returns IDs of transactions that never reached the export
// sheet, oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM transactions WHERE synced = 0 ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending sync: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) SaveIncome(ctx context.Context, amount float64) error {
	return r.saveSetting(ctx, settingIncome, amount)
}

func (r *SQLiteRepository) Income(ctx context.Context) (float64, error) {
	return r.setting(ctx, settingIncome)
}

func (r *SQLiteRepository) SaveSavingsGoal(ctx context.Context, amount float64) error {
	return r.saveSetting(ctx, settingSavingsGoal, amount)
}

func (r *SQLiteRepository) SavingsGoal(ctx context.Context) (float64, error) {
	return r.setting(ctx, settingSavingsGoal)
}

func (r *SQLiteRepository) saveSetting(ctx context.Context, key string, value float64) error {
	if value < 0 {
		return core.ErrNegativeAmount
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) setting(ctx context.Context, key string) (float64, error) {
	var value float64
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, nil
}

// AddRecurringExpense registers a fixed monthly outflow.
func (r *SQLiteRepository) AddRecurringExpense(ctx context.Context, name string, amount float64) (core.FixedExpense, error) {
	f := core.FixedExpense{
		ID:     uuid.NewString(),
		Name:   strings.TrimSpace(name),
		Amount: amount,
	}
	if err := f.Validate(); err != nil {
		return core.FixedExpense{}, err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_expenses (id, name, amount) VALUES (?, ?, ?)`,
		f.ID, f.Name, f.Amount)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("add recurring expense: %w", err)
	}
	return f, nil
}

// DisableRecurringExpense stops counting the expense against income.
// The row stays for history.
func (r *SQLiteRepository) DisableRecurringExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_expenses SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("disable recurring expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("disable recurring expense: %w", err)
	}
	if n == 0 {
		return core.ErrTransactionGone
	}
	return nil
}

// ListRecurringExpenses returns the active fixed monthly outflows.
func (r *SQLiteRepository) ListRecurringExpenses(ctx context.Context) ([]core.FixedExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount FROM recurring_expenses WHERE active = 1 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []core.FixedExpense
	for rows.Next() {
		var f core.FixedExpense
		if err := rows.Scan(&f.ID, &f.Name, &f.Amount); err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// LoadBudgetState assembles the projection engine's input snapshot for
// the given month.
func (r *SQLiteRepository) LoadBudgetState(ctx context.Context, year int, month time.Month) (core.BudgetState, error) {
	var state core.BudgetState
	var err error

	if state.Income, err = r.Income(ctx); err != nil {
		return core.BudgetState{}, err
	}
	if state.SavingsGoal, err = r.SavingsGoal(ctx); err != nil {
		return core.BudgetState{}, err
	}
	if state.RecurringExpenses, err = r.ListRecurringExpenses(ctx); err != nil {
		return core.BudgetState{}, err
	}
	if state.Buckets, err = r.ListBuckets(ctx, year, month); err != nil {
		return core.BudgetState{}, err
	}
	if state.Transactions, err = r.ListTransactions(ctx, year, month); err != nil {
		return core.BudgetState{}, err
	}
	return state, nil
}

func monthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}
