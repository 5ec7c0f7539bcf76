package http

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"ledger/internal/auth"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
	"ledger/internal/storage"
	appweb "ledger/web"
)

// Deps are the collaborators a Server is built from.
type Deps struct {
	Repo      storage.Repository
	Publisher services.Publisher // nil disables sync messages
	Tokens    *auth.Tokens
	Logger    *log.Logger

	RateLimit   int // requests per minute per client
	CORSOrigins []string

	// Now overrides the clock used for reports; tests only.
	Now func() time.Time
}

type Server struct {
	http.Server
	templates *template.Template

	repo       storage.Repository
	ledgers    *services.LedgerService
	tokens     *auth.Tokens
	logger     *log.Logger
	structured *log.StructuredLogger
	now        func() time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	caches      *cache.Manager
	ledgerCache *cache.LRUCache[[]core.Transaction]

	shutdownOnce sync.Once
}

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		repo:       deps.Repo,
		tokens:     deps.Tokens,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		now:        deps.Now,
		detector:   security.NewDetector(),
		caches:     cache.NewManager(logger),
	}
	if s.now == nil {
		s.now = time.Now
	}

	limit := ratelimit.DefaultConfig()
	if deps.RateLimit > 0 {
		limit.RequestsPerWindow = deps.RateLimit
	}
	s.limiter = ratelimit.NewLimiter(limit)
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	// per-user ledgers, refreshed on every save
	s.ledgerCache = cache.NewLRUCache[[]core.Transaction](500, 10*time.Minute)
	s.caches.Register(s.ledgerCache)
	s.caches.StartCleanup(10 * time.Minute)
	s.ledgers = services.NewLedgerService(deps.Repo, deps.Publisher, logger, services.WithCache(s.ledgerCache))

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Handler = s.routes(deps.CORSOrigins)
	return s
}

func (s *Server) routes(origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(log.ComponentMiddleware(log.ComponentHTTP))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(func(r *http.Request) {
		s.logger.WarnContext(r.Context(), "Suspicious request",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path,
			log.FieldUserAgent, r.UserAgent())
	}))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID},
		MaxAge:         600,
	}).Handler)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, tooManyRequests))

		r.Get("/", s.handlePage("index"))
		r.Get("/login", s.handlePage("login"))
		r.Get("/register", s.handlePage("register"))
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.tokens.Middleware)

			r.Get("/transactions", s.handleGetTransactions)
			r.Post("/transactions", s.handleSaveTransactions)
			r.Get("/report", s.handleReport)

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/", s.handleAdminPage)
				r.Get("/users", s.handleAdminUsers)
				r.Get("/visitors", s.handleAdminVisitors)
				r.Get("/all-transactions", s.handleAdminAllTransactions)
				r.Get("/stats", s.handleAdminStats)
			})
		})
	})
	return r
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.repo.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func tooManyRequests(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusTooManyRequests, "Too many requests")
}
