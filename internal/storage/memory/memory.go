// Package memory is an in-process implementation of the storage ports,
// used by tests and by the server when DATA_BACKEND=memory.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	users   []storage.User
	ledgers map[string][]core.Transaction
	visits  []storage.Visit
	lastID  int64
	now     func() time.Time
}

func New() *Store {
	return &Store{
		ledgers: make(map[string][]core.Transaction),
		now:     time.Now,
	}
}

var _ storage.Repository = (*Store)(nil)

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) CreateUser(_ context.Context, u storage.NewUser) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return storage.User{}, storage.ErrUserExists
		}
	}
	now := s.now().UTC()
	s.lastID = storage.NextUserID(now, s.lastID)
	user := storage.User{
		ID:           strconv.FormatInt(s.lastID, 10),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Email:        u.Email,
		IsAdmin:      len(s.users) == 0,
		CreatedAt:    now,
	}
	s.users = append(s.users, user)
	return user, nil
}

func (s *Store) GetUser(_ context.Context, id string) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return storage.User{}, storage.ErrNotFound
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return storage.User{}, storage.ErrNotFound
}

func (s *Store) ListUsers(context.Context) ([]storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.User(nil), s.users...), nil
}

func (s *Store) CountUsers(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (s *Store) LoadLedger(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction{}, s.ledgers[userID]...), nil
}

func (s *Store) SaveLedger(_ context.Context, userID string, records []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[userID] = append([]core.Transaction{}, records...)
	return nil
}

func (s *Store) AllLedgers(context.Context) (map[string][]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]core.Transaction, len(s.ledgers))
	for id, records := range s.ledgers {
		out[id] = append([]core.Transaction{}, records...)
	}
	return out, nil
}

func (s *Store) LogVisit(_ context.Context, v storage.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.Timestamp.IsZero() {
		v.Timestamp = s.now()
	}
	if v.Username == "" {
		v.Username = storage.GuestName
	}
	v.ID = int64(len(s.visits) + 1)
	s.visits = append(s.visits, v)
	return nil
}

func (s *Store) ListVisits(_ context.Context, limit int) ([]storage.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]storage.Visit(nil), s.visits...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
