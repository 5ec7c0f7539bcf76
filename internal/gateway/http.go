package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"ledger/internal/core"
)

// User is the public part of an account as returned by the server.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// LoginResult is the server's answer to a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// HTTPGateway talks to the ledger server with a bearer token.
type HTTPGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

type HTTPOption func(*HTTPGateway)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(g *HTTPGateway) { g.client = c }
}

func NewHTTPGateway(baseURL, token string, opts ...HTTPOption) *HTTPGateway {
	g := &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithToken returns a copy of g that sends token.
func (g *HTTPGateway) WithToken(token string) *HTTPGateway {
	cp := *g
	cp.token = token
	return &cp
}

func (g *HTTPGateway) Load(ctx context.Context) ([]core.Transaction, error) {
	var records []core.Transaction
	if err := g.do(ctx, http.MethodGet, "/transactions", nil, &records); err != nil {
		return nil, &core.PersistenceError{Op: "load ledger", Err: err}
	}
	return records, nil
}

func (g *HTTPGateway) Save(ctx context.Context, records []core.Transaction) error {
	if records == nil {
		records = []core.Transaction{}
	}
	if err := g.do(ctx, http.MethodPost, "/transactions", records, nil); err != nil {
		return &core.PersistenceError{Op: "save ledger", Err: err}
	}
	return nil
}

// Login exchanges credentials for a session token.
func (g *HTTPGateway) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := g.do(ctx, http.MethodPost, "/login", body, &res); err != nil {
		return LoginResult{}, err
	}
	return res, nil
}

// Register creates an account. The first account on a server is the admin.
func (g *HTTPGateway) Register(ctx context.Context, username, password, email string) (User, error) {
	var res struct {
		User User `json:"user"`
	}
	body := map[string]string{"username": username, "password": password, "email": email}
	if err := g.do(ctx, http.MethodPost, "/register", body, &res); err != nil {
		return User{}, err
	}
	return res.User, nil
}

// StatusError is a non-2xx answer carrying the server's error message.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden && isProtected(path):
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
		return &StatusError{Code: resp.StatusCode, Message: payload.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// An invalid token on a ledger route is answered with 403.
func isProtected(path string) bool {
	return path == "/transactions"
}
