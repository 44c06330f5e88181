package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgeteer/internal/amqp"
	"budgeteer/internal/core"
	applog "budgeteer/internal/log"
	"budgeteer/internal/sheets"
)

type fakeStore struct {
	transactions map[string]core.Transaction
	pending      []string
	synced       []string
	syncErrors   []string
}

func (f *fakeStore) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	tx, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrTransactionGone
	}
	return tx, nil
}

func (f *fakeStore) PendingSync(_ context.Context, limit int) ([]string, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeStore) MarkSynced(_ context.Context, id string) error {
	f.synced = append(f.synced, id)
	return nil
}

func (f *fakeStore) MarkSyncError(_ context.Context, id string) error {
	f.syncErrors = append(f.syncErrors, id)
	return nil
}

type failingWriter struct {
	err error
}

func (f *failingWriter) AppendTransaction(_ context.Context, _ core.Transaction) error {
	return f.err
}

func sampleTx(id string) core.Transaction {
	return core.Transaction{
		ID:     id,
		Amount: -450,
		Bucket: "Food",
		Note:   "SWIGGY",
		Date:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Type:   core.Expense,
	}
}

func newTestWorker(store Store, writer sheets.TransactionWriter) *SyncWorker {
	return NewSyncWorker(store, writer, 10, applog.New(applog.DefaultConfig()))
}

func TestHandleSyncMessage(t *testing.T) {
	store := &fakeStore{transactions: map[string]core.Transaction{"tx-1": sampleTx("tx-1")}}
	mem := sheets.NewMemory()
	w := newTestWorker(store, mem)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewTransactionSyncMessage("tx-1")); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	if rows := mem.Rows(); len(rows) != 1 || rows[0].ID != "tx-1" {
		t.Errorf("exported rows = %+v", rows)
	}
	if len(store.synced) != 1 || store.synced[0] != "tx-1" {
		t.Errorf("synced = %v", store.synced)
	}
}

func TestHandleSyncMessageDeletedTransaction(t *testing.T) {
	store := &fakeStore{transactions: map[string]core.Transaction{}}
	w := newTestWorker(store, sheets.NewMemory())

	// Deleted rows must be acked, not retried forever
	if err := w.HandleSyncMessage(context.Background(), amqp.NewTransactionSyncMessage("gone")); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
}

func TestHandleSyncMessageWriterFailure(t *testing.T) {
	store := &fakeStore{transactions: map[string]core.Transaction{"tx-1": sampleTx("tx-1")}}
	w := newTestWorker(store, &failingWriter{err: errors.New("quota")})

	if err := w.HandleSyncMessage(context.Background(), amqp.NewTransactionSyncMessage("tx-1")); err == nil {
		t.Fatal("expected error so the delivery is requeued")
	}
	if len(store.syncErrors) != 1 || store.syncErrors[0] != "tx-1" {
		t.Errorf("syncErrors = %v", store.syncErrors)
	}
}

func TestProcessPending(t *testing.T) {
	store := &fakeStore{
		transactions: map[string]core.Transaction{
			"tx-1": sampleTx("tx-1"),
			"tx-3": sampleTx("tx-3"),
		},
		pending: []string{"tx-1", "tx-2", "tx-3"},
	}
	mem := sheets.NewMemory()
	w := newTestWorker(store, mem)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}

	if len(mem.Rows()) != 2 {
		t.Errorf("exported %d rows, want the 2 loadable ones", len(mem.Rows()))
	}
	if len(store.syncErrors) != 1 || store.syncErrors[0] != "tx-2" {
		t.Errorf("syncErrors = %v, want the missing row flagged", store.syncErrors)
	}
}

func TestProcessPendingEmpty(t *testing.T) {
	w := newTestWorker(&fakeStore{}, sheets.NewMemory())
	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	store := &fakeStore{
		transactions: map[string]core.Transaction{"tx-1": sampleTx("tx-1")},
		pending:      []string{"tx-1"},
	}
	mem := sheets.NewMemory()
	w := newTestWorker(store, mem)

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	if len(mem.Rows()) != 1 {
		t.Errorf("exported %d rows, want 1", len(mem.Rows()))
	}
}

func TestRunSweepStopsOnCancel(t *testing.T) {
	w := newTestWorker(&fakeStore{}, sheets.NewMemory())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.RunSweep(ctx, 10*time.Millisecond) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop after cancel")
	}
}
