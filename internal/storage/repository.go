package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
		now:    time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u NewUser) (User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, u.Username).Scan(&exists)
	if err != nil {
		return User{}, fmt.Errorf("check username: %w", err)
	}
	if exists > 0 {
		return User{}, ErrUserExists
	}

	var count int
	var last sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*), MAX(CAST(id AS INTEGER)) FROM users`).Scan(&count, &last)
	if err != nil {
		return User{}, fmt.Errorf("count users: %w", err)
	}

	now := r.now().UTC()
	user := User{
		ID:           strconv.FormatInt(NextUserID(now, last.Int64), 10),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Email:        u.Email,
		IsAdmin:      count == 0,
		CreatedAt:    now,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, email, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, user.Email, user.IsAdmin, now.Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return User{}, fmt.Errorf("commit: %w", err)
	}

	r.logger.InfoContext(ctx, "User created",
		log.FieldUserID, user.ID,
		log.FieldUsername, user.Username,
		"is_admin", user.IsAdmin)
	return user, nil
}

const userColumns = `id, username, password_hash, email, is_admin, created_at`

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *SQLiteRepository) getUser(ctx context.Context, query string, arg string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (User, error) {
	var (
		u       User
		created string
	)
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.IsAdmin, &created); err != nil {
		return User{}, err
	}
	u.CreatedAt, _ = time.Parse(timeLayout, created)
	return u, nil
}

// LoadLedger returns an empty ledger for users that never saved.
func (r *SQLiteRepository) LoadLedger(ctx context.Context, userID string) ([]core.Transaction, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT document FROM ledgers WHERE user_id = ?`, userID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return []core.Transaction{}, nil
	}
	if err != nil {
		return nil, &core.PersistenceError{Op: "load ledger", Err: err}
	}
	return decodeLedger(doc)
}

func (r *SQLiteRepository) SaveLedger(ctx context.Context, userID string, records []core.Transaction) error {
	doc, err := encodeLedger(records)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ledgers (user_id, document, record_count, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			document = excluded.document,
			record_count = excluded.record_count,
			updated_at = excluded.updated_at`,
		userID, doc, len(records), r.now().UTC().Format(timeLayout))
	if err != nil {
		return &core.PersistenceError{Op: "save ledger", Err: err}
	}
	return nil
}

func (r *SQLiteRepository) AllLedgers(ctx context.Context) (map[string][]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, document FROM ledgers`)
	if err != nil {
		return nil, &core.PersistenceError{Op: "list ledgers", Err: err}
	}
	defer rows.Close()

	out := make(map[string][]core.Transaction)
	for rows.Next() {
		var userID, doc string
		if err := rows.Scan(&userID, &doc); err != nil {
			return nil, &core.PersistenceError{Op: "scan ledger", Err: err}
		}
		records, err := decodeLedger(doc)
		if err != nil {
			return nil, err
		}
		out[userID] = records
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) LogVisit(ctx context.Context, v Visit) error {
	if v.Timestamp.IsZero() {
		v.Timestamp = r.now()
	}
	if v.Username == "" {
		v.Username = GuestName
	}
	var userID sql.NullString
	if v.UserID != "" {
		userID = sql.NullString{String: v.UserID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO visits (visited_at, ip, user_agent, user_id, username, endpoint) VALUES (?, ?, ?, ?, ?, ?)`,
		v.Timestamp.UTC().Format(timeLayout), v.IP, v.UserAgent, userID, v.Username, v.Endpoint)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListVisits(ctx context.Context, limit int) ([]Visit, error) {
	query := `SELECT id, visited_at, ip, user_agent, user_id, username, endpoint FROM visits ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var (
			v      Visit
			at     string
			userID sql.NullString
		)
		if err := rows.Scan(&v.ID, &at, &v.IP, &v.UserAgent, &userID, &v.Username, &v.Endpoint); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.Timestamp, _ = time.Parse(timeLayout, at)
		v.UserID = userID.String
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func encodeLedger(records []core.Transaction) (string, error) {
	if records == nil {
		records = []core.Transaction{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", &core.PersistenceError{Op: "encode ledger", Err: err}
	}
	return string(b), nil
}

func decodeLedger(doc string) ([]core.Transaction, error) {
	var records []core.Transaction
	if err := json.Unmarshal([]byte(doc), &records); err != nil {
		return nil, &core.PersistenceError{Op: "decode ledger", Err: err}
	}
	if records == nil {
		records = []core.Transaction{}
	}
	return records, nil
}
