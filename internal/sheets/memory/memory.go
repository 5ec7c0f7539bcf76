// Package memory keeps mirrored ledgers in process so tests can observe
// what the worker writes.
package memory

import (
	"context"
	"sync"

	"ledger/internal/core"
	"ledger/internal/sheets"
)

type Mirror struct {
	mu     sync.Mutex
	base   string
	tabs   map[string][][]interface{}
	writes int
	err    error
}

var _ sheets.LedgerMirror = (*Mirror)(nil)

func New(base string) *Mirror {
	return &Mirror{base: base, tabs: make(map[string][][]interface{})}
}

// FailWith makes every following MirrorLedger call return err.
func (m *Mirror) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *Mirror) MirrorLedger(_ context.Context, owner sheets.Owner, records []core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tabs[sheets.TabTitle(m.base, owner)] = sheets.Rows(records)
	m.writes++
	return nil
}

// Tab returns the rows of a tab, header included, and whether it exists.
func (m *Mirror) Tab(title string) ([][]interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.tabs[title]
	return rows, ok
}

// Writes counts successful mirror calls.
func (m *Mirror) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
