package amqp

import (
	"context"

	"budgeteer/internal/core"
	applog "budgeteer/internal/log"
)

// SyncPublisher is satisfied by *Client.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id string) error
}

// Notifier forwards committed transactions to the sync queue. Publish
// failures are logged, never surfaced: the sweep worker picks up rows the
// queue missed.
type Notifier struct {
	publisher SyncPublisher
	logger    *applog.Logger
}

func NewNotifier(publisher SyncPublisher, logger *applog.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentAMQP),
	}
}

// TransactionCommitted implements importer.Notifier.
func (n *Notifier) TransactionCommitted(ctx context.Context, t core.Transaction) {
	if err := n.publisher.PublishTransactionSync(ctx, t.ID); err != nil {
		n.logger.WarnContext(ctx, "failed to publish sync message",
			applog.FieldError, err,
			"id", t.ID)
	}
}
