// Package memory is an in-process mirror used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/hasnin090/iq-sub001/internal/core"
)

type Mirror struct {
	mu      sync.Mutex
	entries []core.LedgerEntry
}

func New() *Mirror {
	return &Mirror{}
}

// AppendEntry stores the entry and returns a synthetic row reference.
func (m *Mirror) AppendEntry(_ context.Context, e core.LedgerEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return fmt.Sprintf("mem:%d", len(m.entries)), nil
}

// Entries returns a copy of everything mirrored so far.
func (m *Mirror) Entries() []core.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.LedgerEntry(nil), m.entries...)
}
