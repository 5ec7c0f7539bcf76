package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/log"
)

func sampleRecords(t *testing.T, n int) []core.Transaction {
	t.Helper()
	out := make([]core.Transaction, 0, n)
	for i := 1; i <= n; i++ {
		tx, err := core.NewTransaction(int64(i), core.Purchase, core.Cherry, decimal.NewFromInt(int64(i)),
			core.Kilogram, decimal.NewFromInt(100), core.NewDate(2025, 6, i), time.Date(2025, 6, i, 8, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		out = append(out, tx)
	}
	return out
}

func TestHTTPGatewayLoadSendsBearerToken(t *testing.T) {
	records := sampleRecords(t, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(records)
	}))
	defer srv.Close()

	got, err := NewHTTPGateway(srv.URL+"/", "tok").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[1].ID, got[1].ID)
	assert.True(t, records[1].Total.Equal(got[1].Total))
}

func TestHTTPGatewaySavePostsWholeLedger(t *testing.T) {
	var received []core.Transaction
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	require.NoError(t, NewHTTPGateway(srv.URL, "tok").Save(context.Background(), sampleRecords(t, 3)))
	assert.Len(t, received, 3)
}

func TestHTTPGatewayUnauthorized(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		_, err := NewHTTPGateway(srv.URL, "expired").Load(context.Background())
		srv.Close()

		assert.ErrorIs(t, err, ErrUnauthorized, "status %d", code)
		assert.ErrorIs(t, err, core.ErrPersistence)
	}
}

func TestHTTPGatewayLoginErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Неверные учетные данные"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPGateway(srv.URL, "").Login(context.Background(), "u", "p")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "Неверные учетные данные", se.Message)
}

type stubGateway struct {
	mu      sync.Mutex
	saves   [][]core.Transaction
	loadErr error
	saveErr error
	block   chan struct{}
	started chan struct{}
}

func (s *stubGateway) Load(ctx context.Context) ([]core.Transaction, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return nil, nil
}

func (s *stubGateway) Save(ctx context.Context, records []core.Transaction) error {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, records)
	return s.saveErr
}

func (s *stubGateway) calls() [][]core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]core.Transaction(nil), s.saves...)
}

func TestLoadSoftDegradesToEmpty(t *testing.T) {
	gw := &stubGateway{loadErr: errors.New("connection refused")}
	assert.Empty(t, LoadSoft(context.Background(), gw, log.Discard()))
}

func TestAsyncSaverWritesLatestSnapshot(t *testing.T) {
	gw := &stubGateway{block: make(chan struct{}), started: make(chan struct{}, 4)}
	s := NewAsyncSaver(gw, log.Discard(), time.Second)
	records := sampleRecords(t, 3)

	s.Save(records[:1])
	<-gw.started
	s.Save(records[:2])
	s.Save(records[:3])
	close(gw.block)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Close(ctx))

	calls := gw.calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0], 1)
	assert.Len(t, calls[1], 3)
}

func TestAsyncSaverSnapshotIsCopied(t *testing.T) {
	gw := &stubGateway{}
	s := NewAsyncSaver(gw, log.Discard(), time.Second)
	records := sampleRecords(t, 1)

	s.Save(records)
	records[0].ID = 99
	require.NoError(t, s.Flush(context.Background()))

	calls := gw.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(1), calls[0][0].ID)
}

func TestAsyncSaverSwallowsFailures(t *testing.T) {
	gw := &stubGateway{saveErr: errors.New("disk full")}
	s := NewAsyncSaver(gw, log.Discard(), time.Second)

	s.Save(sampleRecords(t, 1))
	require.NoError(t, s.Flush(context.Background()))
	s.Save(sampleRecords(t, 2))
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, int64(2), s.Failures())
	assert.Len(t, gw.calls(), 2, "no retry")
}

func TestAsyncSaverFlushHonoursContext(t *testing.T) {
	gw := &stubGateway{block: make(chan struct{})}
	s := NewAsyncSaver(gw, log.Discard(), time.Second)
	defer close(gw.block)

	s.Save(sampleRecords(t, 1))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)
}

func TestFileGatewayRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.json")
	g := NewFileGateway(path)

	got, err := g.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, g.Save(context.Background(), sampleRecords(t, 2)))
	got, err = g.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-06-02", got[1].Date.String())
}
