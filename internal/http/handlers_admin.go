package http

import (
	"context"
	"errors"
	"net/http"

	"ledger/internal/auth"
	"ledger/internal/cache"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/trace"
	"ledger/internal/storage"
)

type adminKey struct{}

// requireAdmin checks the stored account, not the token claim, so a
// revoked admin flag takes effect immediately.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := auth.ClaimsFromContext(r.Context())
		user, err := s.repo.GetUser(r.Context(), claims.UserID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.structured.LogError(r.Context(), "Failed to load user", err, log.ComponentStorage, log.OpRead, log.NewFields().WithUser(claims.UserID))
			writeError(w, http.StatusInternalServerError, msgServerError)
			return
		}
		if err != nil || !user.IsAdmin {
			s.logger.WarnContext(r.Context(), "Admin access denied", log.FieldUserID, claims.UserID, log.FieldPath, r.URL.Path)
			writeError(w, http.StatusForbidden, msgForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminKey{}, user)))
	})
}

func adminFromContext(ctx context.Context) (storage.User, bool) {
	u, ok := ctx.Value(adminKey{}).(storage.User)
	return u, ok
}

func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	user, _ := adminFromContext(r.Context())
	s.logVisit(r, &user)
	s.renderPage(w, r, "admin", &user)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.ListUsers(r.Context())
	if err != nil {
		s.structured.LogError(r.Context(), "Failed to list users", err, log.ComponentStorage, log.OpList, log.NewFields())
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}
	out := make([]adminUserView, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserView{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			IsAdmin:   u.IsAdmin,
			CreatedAt: u.CreatedAt.UTC(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminVisitors(w http.ResponseWriter, r *http.Request) {
	visits, err := s.repo.ListVisits(r.Context(), 0)
	if err != nil {
		s.structured.LogError(r.Context(), "Failed to list visits", err, log.ComponentStorage, log.OpList, log.NewFields())
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}
	out := make([]visitView, 0, len(visits))
	for _, v := range visits {
		out = append(out, toVisitView(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminAllTransactions(w http.ResponseWriter, r *http.Request) {
	all, err := s.repo.AllLedgers(r.Context())
	if err != nil {
		s.structured.LogError(r.Context(), "Failed to load ledgers", err, log.ComponentStorage, log.OpList, log.NewFields())
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

type statsView struct {
	RateLimit  ratelimit.Metrics `json:"rateLimit"`
	Requests   trace.Metrics     `json:"requests"`
	Suspicious int64             `json:"suspicious"`
	Cache      cache.Stats       `json:"ledgerCache"`
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).DebugContext(r.Context(), "Admin stats requested")
	writeJSON(w, http.StatusOK, statsView{
		RateLimit:  s.limiter.GetMetrics(),
		Requests:   s.tracer.GetMetrics(),
		Suspicious: s.detector.SuspiciousRequests(),
		Cache:      s.ledgerCache.Stats(),
	})
}
