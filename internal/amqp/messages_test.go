package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgeteer/internal/core"
	applog "budgeteer/internal/log"
)

func TestTransactionSyncMessageRoundTrip(t *testing.T) {
	msg := NewTransactionSyncMessage("tx-123")
	if msg.ID != "tx-123" {
		t.Errorf("ID = %q", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	decoded, err := TransactionSyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if decoded.ID != msg.ID {
		t.Errorf("decoded ID = %q, want %q", decoded.ID, msg.ID)
	}
	if !decoded.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("decoded timestamp = %v, want %v", decoded.Timestamp, msg.Timestamp)
	}
}

func TestTransactionSyncMessageFromInvalidJSON(t *testing.T) {
	if _, err := TransactionSyncMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid payload")
	}
}

type fakePublisher struct {
	ids []string
	err error
}

func (f *fakePublisher) PublishTransactionSync(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.ids = append(f.ids, id)
	return nil
}

func TestNotifierPublishes(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, applog.New(applog.DefaultConfig()))

	n.TransactionCommitted(context.Background(), core.Transaction{
		ID:     "tx-1",
		Amount: -450,
		Bucket: "Food",
		Date:   time.Now(),
	})

	if len(pub.ids) != 1 || pub.ids[0] != "tx-1" {
		t.Errorf("published ids = %v", pub.ids)
	}
}

func TestNotifierSwallowsPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	n := NewNotifier(pub, applog.New(applog.DefaultConfig()))

	// Must not panic or surface the error
	n.TransactionCommitted(context.Background(), core.Transaction{ID: "tx-1"})
}
