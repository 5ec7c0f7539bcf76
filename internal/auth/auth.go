// Package auth hashes passwords and issues the bearer tokens that guard
// the ledger routes.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is how long a login stays valid.
const TokenTTL = 24 * time.Hour

const (
	claimID       = "id"
	claimUsername = "username"
	claimIsAdmin  = "isAdmin"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword returns ErrInvalidCredentials when password does not match.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Claims identify the caller of an authenticated request.
type Claims struct {
	UserID   string
	Username string
	IsAdmin  bool
}

// Tokens signs and verifies HS256 tokens.
type Tokens struct {
	ja  *jwtauth.JWTAuth
	ttl time.Duration
	now func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = TokenTTL
	}
	return &Tokens{
		ja:  jwtauth.New("HS256", []byte(secret), nil),
		ttl: ttl,
		now: time.Now,
	}
}

func (t *Tokens) Issue(c Claims) (string, error) {
	now := t.now()
	claims := map[string]interface{}{
		claimID:       c.UserID,
		claimUsername: c.Username,
		claimIsAdmin:  c.IsAdmin,
		"iat":         now.UTC(),
	}
	jwtauth.SetExpiry(claims, now.Add(t.ttl))
	_, token, err := t.ja.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

type claimsKey struct{}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}

// Middleware verifies the bearer token. A missing token is answered with
// 401, a bad or expired one with 403.
func (t *Tokens) Middleware(next http.Handler) http.Handler {
	return jwtauth.Verifier(t.ja)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if jwtauth.TokenFromHeader(r) == "" {
			deny(w, http.StatusUnauthorized, "Токен отсутствует")
			return
		}
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			deny(w, http.StatusForbidden, "Неверный токен")
			return
		}
		c, ok := parseClaims(claims)
		if !ok {
			deny(w, http.StatusForbidden, "Неверный токен")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), c)))
	}))
}

func parseClaims(m map[string]interface{}) (Claims, bool) {
	id, ok := m[claimID].(string)
	if !ok || id == "" {
		return Claims{}, false
	}
	username, _ := m[claimUsername].(string)
	isAdmin, _ := m[claimIsAdmin].(bool)
	return Claims{UserID: id, Username: username, IsAdmin: isAdmin}, true
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
