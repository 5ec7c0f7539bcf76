package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/storage/memory"
)

type fakePublisher struct {
	calls int
	last  int
	err   error
}

func (p *fakePublisher) PublishLedgerSaved(_ context.Context, _ string, count int) error {
	p.calls++
	p.last = count
	return p.err
}

func record(t *testing.T, id int64) core.Transaction {
	t.Helper()
	tx, err := core.NewTransaction(id, core.Purchase, core.Plum,
		decimal.NewFromInt(3), core.Box, decimal.NewFromInt(500),
		core.NewDate(2025, 6, 1), time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	return tx
}

func TestLedgerService_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewLedgerService(store, pub, log.Discard())

	got, err := svc.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("empty ledger should be a non-nil empty slice, got %#v", got)
	}

	if err := svc.Save(ctx, "u1", []core.Transaction{record(t, 1), record(t, 2)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if pub.calls != 1 || pub.last != 2 {
		t.Errorf("publisher calls=%d last=%d", pub.calls, pub.last)
	}

	got, err = svc.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d records, want 2", len(got))
	}
}

func TestLedgerService_InvalidLedgerChangesNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewLedgerService(store, pub, log.Discard())

	if err := svc.Save(ctx, "u1", []core.Transaction{record(t, 1)}); err != nil {
		t.Fatal(err)
	}

	err := svc.Save(ctx, "u1", []core.Transaction{record(t, 4), record(t, 4)})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	stored, _ := store.LoadLedger(ctx, "u1")
	if len(stored) != 1 || stored[0].ID != 1 {
		t.Errorf("stored ledger changed: %+v", stored)
	}
	if pub.calls != 1 {
		t.Errorf("rejected save should not publish, calls=%d", pub.calls)
	}
}

func TestLedgerService_PublishFailureIsNotAnError(t *testing.T) {
	svc := NewLedgerService(memory.New(), &fakePublisher{err: errors.New("broker down")}, log.Discard())
	if err := svc.Save(context.Background(), "u1", []core.Transaction{record(t, 1)}); err != nil {
		t.Errorf("Save should succeed when publishing fails: %v", err)
	}
}

func TestLedgerService_NilPublisher(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil, log.Discard())
	if err := svc.Save(context.Background(), "u1", nil); err != nil {
		t.Errorf("Save: %v", err)
	}
}

func TestLedgerService_CacheIsRefreshedOnSave(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	lru := cache.NewLRUCache[[]core.Transaction](10, time.Minute)
	svc := NewLedgerService(store, nil, log.Discard(), WithCache(lru))

	if _, err := svc.Load(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if lru.Size() != 1 {
		t.Fatalf("load should populate the cache, size=%d", lru.Size())
	}

	if err := svc.Save(ctx, "u1", []core.Transaction{record(t, 9)}); err != nil {
		t.Fatal(err)
	}
	cached, ok := lru.Get("u1")
	if !ok || len(cached) != 1 || cached[0].ID != 9 {
		t.Errorf("cache not refreshed: %+v ok=%v", cached, ok)
	}
}
