// Package worker mirrors saved ledgers from the database into Google Sheets.
// It reacts to save notifications and periodically resyncs everything in
// case a notification was lost.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets"
	"ledger/internal/storage"
)

// Source is the part of the repository the worker reads from.
type Source interface {
	GetUser(ctx context.Context, id string) (storage.User, error)
	LoadLedger(ctx context.Context, userID string) ([]core.Transaction, error)
	AllLedgers(ctx context.Context) (map[string][]core.Transaction, error)
}

// Consumer delivers save notifications.
type Consumer interface {
	ConsumeLedgerSaved(ctx context.Context, handler func(context.Context, *amqp.LedgerSavedMessage) error) error
}

type SyncWorker struct {
	source Source
	mirror sheets.LedgerMirror
	logger *log.Logger
	now    func() time.Time

	mu     sync.Mutex
	synced map[string]time.Time // user id -> when the mirror last matched the database
}

func NewSyncWorker(source Source, mirror sheets.LedgerMirror, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		source: source,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
		now:    time.Now,
		synced: make(map[string]time.Time),
	}
}

// HandleLedgerSaved mirrors the user's current ledger. Messages older than
// the last completed mirror of that user are skipped, since the database
// copy they refer to has already been written.
func (w *SyncWorker) HandleLedgerSaved(ctx context.Context, msg *amqp.LedgerSavedMessage) error {
	w.mu.Lock()
	last, seen := w.synced[msg.UserID]
	w.mu.Unlock()
	if seen && !msg.Timestamp.IsZero() && msg.Timestamp.Before(last) {
		w.logger.DebugContext(ctx, "Skipping stale ledger notification",
			log.FieldUserID, msg.UserID,
			"message_time", msg.Timestamp)
		return nil
	}

	user, err := w.source.GetUser(ctx, msg.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		// nothing to mirror; acknowledge so it is not redelivered forever
		w.logger.WarnContext(ctx, "Ledger notification for unknown user", log.FieldUserID, msg.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get user %s: %w", msg.UserID, err)
	}

	records, err := w.source.LoadLedger(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("load ledger %s: %w", user.ID, err)
	}
	return w.mirrorUser(ctx, user, records)
}

func (w *SyncWorker) mirrorUser(ctx context.Context, user storage.User, records []core.Transaction) error {
	started := w.now()
	owner := sheets.Owner{ID: user.ID, Username: user.Username}
	if err := w.mirror.MirrorLedger(ctx, owner, records); err != nil {
		return fmt.Errorf("mirror ledger %s: %w", user.ID, err)
	}

	w.mu.Lock()
	w.synced[user.ID] = started
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Ledger synced",
		log.FieldUserID, user.ID,
		log.FieldUsername, user.Username,
		log.FieldRecordCount, len(records),
		log.FieldOperation, log.OpSync)
	return nil
}

// ResyncAll mirrors every stored ledger. Failures for one user do not stop
// the others; they are joined into the returned error.
func (w *SyncWorker) ResyncAll(ctx context.Context) error {
	ledgers, err := w.source.AllLedgers(ctx)
	if err != nil {
		return fmt.Errorf("load all ledgers: %w", err)
	}

	var errs []error
	synced := 0
	for userID, records := range ledgers {
		if err := ctx.Err(); err != nil {
			return err
		}
		user, err := w.source.GetUser(ctx, userID)
		if err != nil {
			errs = append(errs, fmt.Errorf("get user %s: %w", userID, err))
			continue
		}
		if err := w.mirrorUser(ctx, user, records); err != nil {
			errs = append(errs, err)
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Full resync completed",
		"total", len(ledgers),
		"synced", synced,
		"errors", len(errs))
	return errors.Join(errs...)
}

// Run resyncs once, then consumes notifications and resyncs every interval
// until ctx is cancelled or the consumer fails.
func (w *SyncWorker) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	if err := w.ResyncAll(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup resync failed", log.FieldError, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.ConsumeLedgerSaved(ctx, w.HandleLedgerSaved)
	})
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ResyncAll(ctx); err != nil && ctx.Err() == nil {
					w.logger.ErrorContext(ctx, "Periodic resync failed", log.FieldError, err)
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
