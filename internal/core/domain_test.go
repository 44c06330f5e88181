package core

import (
	"errors"
	"testing"
	"time"
)

func TestBucketValidate(t *testing.T) {
	tests := []struct {
		name    string
		bucket  Bucket
		wantErr error
	}{
		{name: "valid", bucket: Bucket{Name: "Groceries", Limit: 5000}},
		{name: "zero limit allowed", bucket: Bucket{Name: "Dining"}},
		{name: "blank name", bucket: Bucket{Name: "   "}, wantErr: ErrEmptyBucketName},
		{name: "negative limit", bucket: Bucket{Name: "Rent", Limit: -1}, wantErr: ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bucket.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tx      Transaction
		wantErr error
	}{
		{name: "valid expense", tx: Transaction{Bucket: "Groceries", Amount: -250, Date: date, Type: Expense}},
		{name: "valid with empty type", tx: Transaction{Bucket: "Salary", Amount: 90000, Date: date}},
		{name: "missing bucket", tx: Transaction{Amount: -250, Date: date}, wantErr: ErrMissingBucket},
		{name: "zero date", tx: Transaction{Bucket: "Groceries", Amount: -250}, wantErr: ErrInvalidDate},
		{name: "bad type", tx: Transaction{Bucket: "Groceries", Date: date, Type: "transfer"}, wantErr: ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFixedExpenseValidate(t *testing.T) {
	if err := (FixedExpense{Name: "Rent", Amount: 15000}).Validate(); err != nil {
		t.Fatalf("valid fixed expense rejected: %v", err)
	}
	if err := (FixedExpense{Name: "", Amount: 100}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank name: got %v, want ErrEmptyName", err)
	}
	if err := (FixedExpense{Name: "Rent", Amount: -5}).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("negative amount: got %v, want ErrNegativeAmount", err)
	}
}
