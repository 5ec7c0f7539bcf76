package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
)

func backends(t *testing.T) map[string]storage.Repository {
	t.Helper()
	sqlite, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"), log.Discard())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]storage.Repository{
		"sqlite": sqlite,
		"memory": memory.New(),
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			first, err := repo.CreateUser(ctx, storage.NewUser{Username: "anna", PasswordHash: "h1", Email: "a@x"})
			if err != nil {
				t.Fatalf("create first: %v", err)
			}
			if !first.IsAdmin {
				t.Fatalf("first user should be admin")
			}
			second, err := repo.CreateUser(ctx, storage.NewUser{Username: "bob", PasswordHash: "h2"})
			if err != nil {
				t.Fatalf("create second: %v", err)
			}
			if second.IsAdmin {
				t.Fatalf("second user should not be admin")
			}
			if first.ID == second.ID {
				t.Fatalf("ids must be unique, both %s", first.ID)
			}

			if _, err := repo.CreateUser(ctx, storage.NewUser{Username: "anna", PasswordHash: "x"}); !errors.Is(err, storage.ErrUserExists) {
				t.Fatalf("expected ErrUserExists, got %v", err)
			}

			got, err := repo.GetUserByUsername(ctx, "bob")
			if err != nil || got.ID != second.ID || got.PasswordHash != "h2" {
				t.Fatalf("lookup by name: %+v %v", got, err)
			}
			got, err = repo.GetUser(ctx, first.ID)
			if err != nil || got.Username != "anna" || !got.IsAdmin || got.Email != "a@x" {
				t.Fatalf("lookup by id: %+v %v", got, err)
			}
			if _, err := repo.GetUser(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			users, err := repo.ListUsers(ctx)
			if err != nil || len(users) != 2 {
				t.Fatalf("list users: %d %v", len(users), err)
			}
			if n, _ := repo.CountUsers(ctx); n != 2 {
				t.Fatalf("count = %d", n)
			}
		})
	}
}

func ledgerOf(t *testing.T, n int) []core.Transaction {
	t.Helper()
	var out []core.Transaction
	for i := 1; i <= n; i++ {
		tx, err := core.NewTransaction(int64(i), core.Purchase, core.Raspberry, decimal.RequireFromString("0.5"),
			core.Kilogram, decimal.RequireFromString("320.10"), core.NewDate(2025, 7, i), time.Date(2025, 7, i, 10, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, tx)
	}
	return out
}

func TestLedgers(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			u, err := repo.CreateUser(ctx, storage.NewUser{Username: "anna", PasswordHash: "h"})
			if err != nil {
				t.Fatal(err)
			}

			empty, err := repo.LoadLedger(ctx, u.ID)
			if err != nil || empty == nil || len(empty) != 0 {
				t.Fatalf("expected empty non-nil ledger, got %v %v", empty, err)
			}

			if err := repo.SaveLedger(ctx, u.ID, ledgerOf(t, 3)); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := repo.SaveLedger(ctx, u.ID, ledgerOf(t, 2)); err != nil {
				t.Fatalf("replace: %v", err)
			}
			got, err := repo.LoadLedger(ctx, u.ID)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("expected wholesale replacement, got %d records", len(got))
			}
			if !got[1].Total.Equal(decimal.RequireFromString("160.05")) || got[1].Date.String() != "2025-07-02" {
				t.Fatalf("record not preserved: %+v", got[1])
			}

			all, err := repo.AllLedgers(ctx)
			if err != nil || len(all[u.ID]) != 2 {
				t.Fatalf("all ledgers: %v %v", all, err)
			}
		})
	}
}

func TestVisits(t *testing.T) {
	ctx := context.Background()
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := repo.LogVisit(ctx, storage.Visit{IP: "1.2.3.4", Endpoint: "/"}); err != nil {
				t.Fatal(err)
			}
			if err := repo.LogVisit(ctx, storage.Visit{IP: "1.2.3.4", Endpoint: "/login", UserID: "7", Username: "anna"}); err != nil {
				t.Fatal(err)
			}
			visits, err := repo.ListVisits(ctx, 0)
			if err != nil || len(visits) != 2 {
				t.Fatalf("list: %v %v", visits, err)
			}
			if visits[0].Endpoint != "/login" || visits[0].UserID != "7" {
				t.Fatalf("newest first expected, got %+v", visits[0])
			}
			if visits[1].Username != storage.GuestName || visits[1].UserID != "" {
				t.Fatalf("guest visit not recorded as guest: %+v", visits[1])
			}
			limited, _ := repo.ListVisits(ctx, 1)
			if len(limited) != 1 {
				t.Fatalf("limit ignored: %d", len(limited))
			}
		})
	}
}

func TestNextUserID(t *testing.T) {
	now := time.UnixMilli(5000)
	if got := storage.NextUserID(now, 0); got != 5000 {
		t.Fatalf("got %d", got)
	}
	if got := storage.NextUserID(now, 5000); got != 5001 {
		t.Fatalf("got %d", got)
	}
}
