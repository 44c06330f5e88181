package sheets

import (
	"context"
	"sync"

	"budgeteer/internal/core"
)

// Memory is an in-process TransactionWriter for tests and local runs
// without Google credentials.
type Memory struct {
	mu   sync.Mutex
	rows []core.Transaction
}

var _ TransactionWriter = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) AppendTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, t)
	return nil
}

// Rows returns a copy of everything appended so far.
func (m *Memory) Rows() []core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Transaction, len(m.rows))
	copy(out, m.rows)
	return out
}
