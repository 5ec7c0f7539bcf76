package storage

import (
	"context"
	"errors"
	"time"

	"ledger/internal/core"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("user already exists")
)

// GuestName is recorded for visits without an authenticated user.
const GuestName = "Гость"

type (
	User struct {
		ID           string
		Username     string
		PasswordHash string
		Email        string
		IsAdmin      bool
		CreatedAt    time.Time
	}

	// NewUser carries the fields a caller supplies; id, admin flag and
	// creation time are assigned by the store.
	NewUser struct {
		Username     string
		PasswordHash string
		Email        string
	}

	Visit struct {
		ID        int64
		Timestamp time.Time
		IP        string
		UserAgent string
		UserID    string // empty for guests
		Username  string
		Endpoint  string
	}
)

// Ports implemented by the SQLite repository and the in-memory store.
type (
	UserStore interface {
		// CreateUser stores u. The first user ever created becomes admin.
		CreateUser(ctx context.Context, u NewUser) (User, error)
		GetUser(ctx context.Context, id string) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		ListUsers(ctx context.Context) ([]User, error)
		CountUsers(ctx context.Context) (int, error)
	}

	// LedgerStore keeps one ledger document per user, replaced wholesale.
	LedgerStore interface {
		LoadLedger(ctx context.Context, userID string) ([]core.Transaction, error)
		SaveLedger(ctx context.Context, userID string, records []core.Transaction) error
		AllLedgers(ctx context.Context) (map[string][]core.Transaction, error)
	}

	VisitLog interface {
		LogVisit(ctx context.Context, v Visit) error
		// ListVisits returns the newest visits first; limit <= 0 means all.
		ListVisits(ctx context.Context, limit int) ([]Visit, error)
	}

	Repository interface {
		UserStore
		LedgerStore
		VisitLog
		Ping(ctx context.Context) error
		Close() error
	}
)

// NextUserID returns a time-derived id greater than last.
func NextUserID(now time.Time, last int64) int64 {
	id := now.UnixMilli()
	if id <= last {
		id = last + 1
	}
	return id
}
