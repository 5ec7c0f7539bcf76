// Package services orchestrates ledger operations across storage and the
// sync publisher.
package services

import (
	"context"

	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/log"
	"ledger/internal/storage"
)

// Publisher announces a saved ledger to the sync worker.
type Publisher interface {
	PublishLedgerSaved(ctx context.Context, userID string, recordCount int) error
}

type Option func(*LedgerService)

// WithCache keeps recently used ledgers in c, keyed by user id.
func WithCache(c *cache.LRUCache[[]core.Transaction]) Option {
	return func(s *LedgerService) { s.cache = c }
}

// LedgerService validates, stores and announces whole-ledger replacements.
type LedgerService struct {
	store     storage.LedgerStore
	publisher Publisher
	cache     *cache.LRUCache[[]core.Transaction]
	logger    *log.Logger
}

// NewLedgerService returns a service that publishes through publisher when
// it is non-nil.
func NewLedgerService(store storage.LedgerStore, publisher Publisher, logger *log.Logger, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the user's ledger, never nil.
func (s *LedgerService) Load(ctx context.Context, userID string) ([]core.Transaction, error) {
	if s.cache != nil {
		if records, ok := s.cache.Get(userID); ok {
			return records, nil
		}
	}
	records, err := s.store.LoadLedger(ctx, userID)
	if err != nil {
		return nil, &core.PersistenceError{Op: "load ledger", Err: err}
	}
	if records == nil {
		records = []core.Transaction{}
	}
	if s.cache != nil {
		s.cache.Set(userID, records)
	}
	return records, nil
}

// Save replaces the user's ledger. Every record is checked first and an
// invalid document changes nothing. A failed publish is logged only; the
// worker's periodic resync picks the ledger up later.
func (s *LedgerService) Save(ctx context.Context, userID string, records []core.Transaction) error {
	if records == nil {
		records = []core.Transaction{}
	}
	if err := Validate(records); err != nil {
		return err
	}

	if err := s.store.SaveLedger(ctx, userID, records); err != nil {
		if s.cache != nil {
			s.cache.Delete(userID)
		}
		return &core.PersistenceError{Op: "save ledger", Err: err}
	}
	if s.cache != nil {
		s.cache.Set(userID, records)
	}

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping sync message", log.FieldUserID, userID)
		return nil
	}
	if err := s.publisher.PublishLedgerSaved(ctx, userID, len(records)); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger sync",
			log.FieldUserID, userID,
			log.FieldRecordCount, len(records),
			log.FieldError, err)
	}
	return nil
}

// Validate checks every record and that ids are unique.
func Validate(records []core.Transaction) error {
	return ledger.Validate(records)
}
