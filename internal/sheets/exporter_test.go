package sheets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budgeteer/internal/core"
	applog "budgeteer/internal/log"
)

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, applog.New(applog.DefaultConfig()))
	if err == nil {
		t.Fatal("expected error without spreadsheet id")
	}
}

func TestResolveCredentials(t *testing.T) {
	t.Run("inline json wins", func(t *testing.T) {
		got, err := resolveCredentials(Config{CredentialsJSON: `{"type":"service_account"}`})
		if err != nil {
			t.Fatalf("resolveCredentials: %v", err)
		}
		if string(got) != `{"type":"service_account"}` {
			t.Errorf("credentials = %s", got)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sa.json")
		if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0600); err != nil {
			t.Fatal(err)
		}
		got, err := resolveCredentials(Config{CredentialsFile: path})
		if err != nil {
			t.Fatalf("resolveCredentials: %v", err)
		}
		if len(got) == 0 {
			t.Error("expected file contents")
		}
	})

	t.Run("missing everything", func(t *testing.T) {
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
		if _, err := resolveCredentials(Config{}); err == nil {
			t.Error("expected error with no credential source")
		}
	})
}

func TestMemoryWriter(t *testing.T) {
	m := NewMemory()
	tx := core.Transaction{
		ID:     "tx-1",
		Amount: -450,
		Bucket: "Food",
		Note:   "SWIGGY",
		Date:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := m.AppendTransaction(context.Background(), tx); err != nil {
		t.Fatalf("AppendTransaction: %v", err)
	}

	rows := m.Rows()
	if len(rows) != 1 || rows[0].ID != "tx-1" {
		t.Errorf("rows = %+v", rows)
	}

	rows[0].ID = "mutated"
	if m.Rows()[0].ID != "tx-1" {
		t.Error("Rows must return a copy")
	}
}
