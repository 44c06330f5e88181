package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

// UncategorizedBucket is the fallback bucket name for transactions that could
// not be classified. It is never auto-created: drafts carrying it stay pending
// until the user assigns a real bucket or commits them as-is.
const UncategorizedBucket = "Uncategorized"

type (
	TransactionType string

	// Bucket is a named spending category with an optional monthly limit.
	// Spent is derived (sum of the bucket's transaction amounts for the
	// evaluation month), never stored.
	Bucket struct {
		ID    string
		Name  string
		Limit float64
		Spent float64
	}

	// Transaction is a committed, immutable ledger entry. Corrections happen
	// via delete and recreate, never in-place mutation.
	Transaction struct {
		ID     string
		Amount float64
		Bucket string
		Note   string
		Date   time.Time
		Type   TransactionType
		Tags   []string
	}

	// DraftTransaction is a row parsed from an imported statement, not yet
	// committed. The ID is synthetic and only unique within one import batch.
	// OriginalRow keeps the raw column values for traceability.
	DraftTransaction struct {
		ID          string
		Date        string
		Note        string
		Amount      float64
		Bucket      string
		OriginalRow map[string]string
	}

	// FixedExpense is a recurring monthly outflow (rent, utilities) counted
	// against income before any bucket allocation.
	FixedExpense struct {
		ID     string
		Name   string
		Amount float64
	}

	// BudgetState is a read-only snapshot of everything the projection engine
	// needs. The engine never mutates it.
	BudgetState struct {
		Income            float64
		SavingsGoal       float64
		RecurringExpenses []FixedExpense
		Buckets           []Bucket
		Transactions      []Transaction
	}
)

var (
	ErrEmptyBucketName = errors.New("empty bucket name")
	ErrMissingBucket   = errors.New("transaction has no bucket")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidDate     = errors.New("invalid date")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrUnknownType     = errors.New("unknown transaction type")
	ErrDuplicateBucket = errors.New("bucket name already exists")
	ErrBucketNotFound  = errors.New("bucket not found")
	ErrTransactionGone = errors.New("transaction not found")
)

func (b Bucket) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyBucketName
	}
	if b.Limit < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Bucket) == "" {
		return ErrMissingBucket
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	switch t.Type {
	case Expense, Income, "":
	default:
		return ErrUnknownType
	}
	return nil
}

func (f FixedExpense) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	if f.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// TypeForAmount derives the transaction type from the signed amount:
// inflows are income, everything else is an expense.
func TypeForAmount(amount float64) TransactionType {
	if amount > 0 {
		return Income
	}
	return Expense
}
