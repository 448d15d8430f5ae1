package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"brastech/internal/cache"
	"brastech/internal/core"
	"brastech/internal/log"
	"brastech/internal/middleware/ratelimit"
	"brastech/internal/middleware/security"
	"brastech/internal/middleware/trace"
	"brastech/internal/services"
)

// UserHeader carries the authenticated email, set by the identity proxy
// in front of the API.
const UserHeader = "X-User-Email"

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the handlers call.
type Deps struct {
	Book     *services.Book
	Roster   *services.RosterService
	Exporter *services.Exporter
	Sweeper  *services.LateSweeper
	Clock    core.Clock
	Filter   services.StatusFilter
	// Pinger backs /readyz; nil means always ready.
	Pinger Pinger
}

type Options struct {
	RateLimitPerMinute int
	CacheTTL           time.Duration
	CacheSize          int
	CleanupInterval    time.Duration
	Logger             *log.Logger
}

func (o Options) withDefaults() Options {
	if o.RateLimitPerMinute <= 0 {
		o.RateLimitPerMinute = 120
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 100
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = 10 * time.Minute
	}
	if o.Logger == nil {
		o.Logger = log.Default(log.ComponentHTTP)
	}
	return o
}

type Server struct {
	http.Server
	deps   Deps
	logger *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	yearlyCache  *cache.LRUCache[yearlyResponse]
	monthlyCache *cache.LRUCache[monthlyResponse]
	caches       *cache.Manager

	shutdownOnce sync.Once
}

type ctxKey int

const sessionKey ctxKey = iota

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	opts = opts.withDefaults()
	if deps.Filter == nil {
		deps.Filter = services.PaidOnly
	}
	if deps.Clock == nil {
		deps.Clock = core.SystemClock{}
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		deps:         deps,
		logger:       logger,
		detector:     security.NewDetector(),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		yearlyCache:  cache.NewLRUCache[yearlyResponse](opts.CacheSize, opts.CacheTTL),
		monthlyCache: cache.NewLRUCache[monthlyResponse](opts.CacheSize, opts.CacheTTL),
		caches:       cache.NewManager(logger),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.caches.Register(s.yearlyCache)
	s.caches.Register(s.monthlyCache)
	s.caches.StartCleanup(context.Background(), opts.CleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.withSession(h))
	}
	authed("GET /api/session", s.handleSession)
	authed("GET /api/metrics", s.handleMetrics)

	authed("GET /api/transactions", s.handleListTransactions)
	authed("POST /api/transactions", s.handleCreateTransaction)
	authed("POST /api/transactions/installments", s.handleCreateInstallments)
	authed("GET /api/transactions/{id}", s.handleGetTransaction)
	authed("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	authed("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	authed("PATCH /api/transactions/{id}/status", s.handleSetStatus)
	authed("PATCH /api/transactions/{id}/payment-date", s.handleSetPaymentDate)
	authed("PATCH /api/transactions/{id}/due-date", s.handleSetDueDate)

	authed("GET /api/dashboard/years", s.handleYears)
	authed("GET /api/dashboard/yearly", s.handleYearly)
	authed("GET /api/dashboard/monthly", s.handleMonthly)

	authed("GET /api/clients", s.handleListClients)
	authed("POST /api/clients", s.handleCreateClient)
	authed("PUT /api/clients/{id}", s.handleUpdateClient)
	authed("DELETE /api/clients/{id}", s.handleDeleteClient)

	authed("GET /api/users", s.handleListUsers)
	authed("POST /api/users", s.handleCreateUser)
	authed("PUT /api/users/{id}", s.handleUpdateUser)
	authed("DELETE /api/users/{id}", s.handleDeleteUser)

	authed("GET /api/export", s.handleExport)
	authed("POST /api/reload", s.handleReload)
	authed("POST /api/sweep", s.handleSweep)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, isReadOnlyMethod, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").
			Header("Retry-After", "60").
			Write(w)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           chain(mux, s.tracer.Middleware, headers.Middleware, s.flagSuspicious, limit),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// chain wraps h so that the first middleware runs first.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func isReadOnlyMethod(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// flagSuspicious logs probing requests; they are still served normally.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

// withSession resolves the caller from UserHeader and stores the session
// in the request context.
func (s *Server) withSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.Header.Get(UserHeader))
		if email == "" {
			ErrorResponse(http.StatusUnauthorized, "missing "+UserHeader+" header").Write(w)
			return
		}
		sess, err := s.deps.Roster.Resolve(r.Context(), email)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) core.Session {
	sess, _ := ctx.Value(sessionKey).(core.Session)
	return sess
}

// writeError logs err at a level matching its status and replies.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(logger).LogError(ctx, "Request failed", err, log.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
	} else {
		logger.DebugContext(ctx, "Request rejected", log.FieldStatusCode, status, log.FieldError, err)
	}
	FromError(err).Write(w)
}

// invalidateDashboards drops every cached summary after a write. Keys carry
// the book revision, so a summary computed before a write can never be
// served after it.
func (s *Server) invalidateDashboards() {
	s.yearlyCache.Purge()
	s.monthlyCache.Purge()
}

// Shutdown stops background routines and then the HTTP server. Safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe runs the server until Shutdown; a clean shutdown is not
// an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
