package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ledger/internal/storage"
)

const maxBodyBytes = 1 << 20

// Messages returned to clients.
const (
	msgServerError      = "Ошибка сервера"
	msgBadCredentials   = "Неверные учетные данные"
	msgUserExists       = "Пользователь уже существует"
	msgUserCreated      = "Пользователь создан"
	msgCredsRequired    = "Имя пользователя и пароль обязательны"
	msgForbidden        = "Доступ запрещен"
	msgSaved            = "Данные сохранены"
	msgInvalidLedger    = "Неверные данные"
	msgInvalidReportArg = "Неверные параметры отчета"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a single JSON value from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("decode body: trailing data")
	}
	return nil
}

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

func publicUser(u storage.User) userView {
	return userView{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

// adminUserView is a user without the password hash.
type adminUserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

type visitView struct {
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	UserID    *string   `json:"userId"`
	Username  string    `json:"username"`
	Endpoint  string    `json:"endpoint"`
}

func toVisitView(v storage.Visit) visitView {
	out := visitView{
		Timestamp: v.Timestamp.UTC(),
		IP:        v.IP,
		UserAgent: v.UserAgent,
		Username:  v.Username,
		Endpoint:  v.Endpoint,
	}
	if v.UserID != "" {
		id := v.UserID
		out.UserID = &id
	}
	return out
}

func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
