// Package ledger holds the in-memory, ordered collection of transactions
// owned by one session. Every other component reads from it.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"ledger/internal/core"
)

// Option configures a Store.
type Option func(*Store)

// WithStrictUnits rejects a record whose unit differs from the unit
// already recorded for the same product.
func WithStrictUnits() Option {
	return func(s *Store) { s.strictUnits = true }
}

// Store is safe for concurrent use. Records keep insertion order.
type Store struct {
	mu          sync.RWMutex
	records     []core.Transaction
	strictUnits bool
}

func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends tx after validating it. Ids must be unique.
func (s *Store) Add(tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == tx.ID {
			return core.Invalid("id", fmt.Sprintf("duplicate id %d", tx.ID))
		}
		if s.strictUnits && r.Product == tx.Product && r.Unit != tx.Unit {
			return core.Invalid("unit", fmt.Sprintf("%s is tracked in %s", tx.Product, r.Unit))
		}
	}
	s.records = append(s.records, tx)
	return nil
}

// Validate checks every record and that ids are unique, in one pass.
// Errors name the index of the offending record.
func Validate(records []core.Transaction) error {
	seen := make(map[int64]struct{}, len(records))
	for i, tx := range records {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[tx.ID]; dup {
			return fmt.Errorf("record %d: %w", i, core.Invalid("id", fmt.Sprintf("duplicate id %d", tx.ID)))
		}
		seen[tx.ID] = struct{}{}
	}
	return nil
}

// Remove deletes the record with the given id and reports whether one was
// found. Removing an unknown id is a no-op.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i:i], s.records[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceAll swaps the whole ledger for records. No merge is attempted.
func (s *Store) ReplaceAll(records []core.Transaction) {
	cp := make([]core.Transaction, len(records))
	copy(cp, records)
	s.mu.Lock()
	s.records = cp
	s.mu.Unlock()
}

// All returns a snapshot in insertion order.
func (s *Store) All() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// NextID returns a time-derived id strictly greater than every id in the
// ledger.
func (s *Store) NextID(now time.Time) int64 {
	id := now.UnixMilli()
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID >= id {
			id = r.ID + 1
		}
	}
	return id
}
