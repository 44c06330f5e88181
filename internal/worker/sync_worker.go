// Package worker moves committed transactions from SQLite to the Google
// Sheet export, driven by queue messages with a periodic sweep as backup.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgeteer/internal/amqp"
	"budgeteer/internal/core"
	applog "budgeteer/internal/log"
	"budgeteer/internal/sheets"
)

// Store is the slice of the repository the worker needs.
type Store interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	PendingSync(ctx context.Context, limit int) ([]string, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

type SyncWorker struct {
	store     Store
	writer    sheets.TransactionWriter
	batchSize int
	logger    *applog.Logger
}

func NewSyncWorker(store Store, writer sheets.TransactionWriter, batchSize int, logger *applog.Logger) *SyncWorker {
	return &SyncWorker{
		store:     store,
		writer:    writer,
		batchSize: batchSize,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleSyncMessage processes a single sync message from the queue. A
// transaction deleted before the message arrived is acked, not retried.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	tx, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrTransactionGone) {
		w.logger.WarnContext(ctx, "transaction deleted before sync, dropping message", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	if err := w.syncTransaction(ctx, tx); err != nil {
		return fmt.Errorf("sync transaction: %w", err)
	}
	return nil
}

// ProcessPending sweeps transactions the queue missed. Per-row failures
// are logged and skipped so one bad row never stalls the sweep.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	ids, err := w.store.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "processing pending transactions", applog.FieldBatchSize, len(ids))

	for _, id := range ids {
		tx, err := w.store.GetTransaction(ctx, id)
		if err != nil {
			w.logger.ErrorContext(ctx, "failed to load pending transaction",
				"id", id, applog.FieldError, err)
			if markErr := w.store.MarkSyncError(ctx, id); markErr != nil {
				w.logger.ErrorContext(ctx, "failed to mark sync error",
					"id", id, applog.FieldError, markErr)
			}
			continue
		}
		if err := w.syncTransaction(ctx, tx); err != nil {
			w.logger.ErrorContext(ctx, "failed to sync pending transaction",
				"id", id, applog.FieldError, err)
		}
	}
	return nil
}

// StartupSyncCheck drains the backlog left over from worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	ids, err := w.store.PendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(ids) == 0 {
		w.logger.InfoContext(ctx, "no pending transactions on startup")
		return nil
	}

	w.logger.InfoContext(ctx, "found pending transactions on startup", applog.FieldBatchSize, len(ids))

	synced, failed := 0, 0
	for _, id := range ids {
		tx, err := w.store.GetTransaction(ctx, id)
		if err != nil {
			failed++
			if markErr := w.store.MarkSyncError(ctx, id); markErr != nil {
				w.logger.ErrorContext(ctx, "failed to mark sync error",
					"id", id, applog.FieldError, markErr)
			}
			continue
		}
		if err := w.syncTransaction(ctx, tx); err != nil {
			failed++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "startup sync completed",
		"total", len(ids),
		"synced", synced,
		"failed", failed)
	return nil
}

// RunSweep runs ProcessPending on the given interval until the context
// is cancelled.
func (w *SyncWorker) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "sweep failed", applog.FieldError, err)
			}
		}
	}
}

func (w *SyncWorker) syncTransaction(ctx context.Context, tx core.Transaction) error {
	if err := w.writer.AppendTransaction(ctx, tx); err != nil {
		if markErr := w.store.MarkSyncError(ctx, tx.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "failed to mark sync error",
				"id", tx.ID, applog.FieldError, markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.store.MarkSynced(ctx, tx.ID); err != nil {
		// The export worked, only the bookkeeping failed
		w.logger.ErrorContext(ctx, "failed to mark as synced",
			"id", tx.ID, applog.FieldError, err)
	}

	w.logger.InfoContext(ctx, "transaction synced",
		"id", tx.ID,
		applog.FieldBucket, tx.Bucket,
		applog.FieldAmount, tx.Amount)
	return nil
}
