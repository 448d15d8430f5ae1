package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"brastech/internal/core"
	"brastech/internal/log"
	"brastech/internal/middleware/ratelimit"
	"brastech/internal/middleware/security"
	"brastech/internal/middleware/trace"
	"brastech/internal/services"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.deps.Pinger.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "backend unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Data(map[string]any{
		"status":     "ready",
		"generation": s.deps.Book.Generation(),
	}).Write(w)
}

type loginRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	User      core.User `json:"user"`
	StartedAt time.Time `json:"startedAt"`
	CanWrite  bool      `json:"canWrite"`
}

func newSessionResponse(sess core.Session) sessionResponse {
	return sessionResponse{User: sess.User, StartedAt: sess.StartedAt, CanWrite: sess.CanWrite()}
}

// handleLogin records an access for an email the identity proxy already
// authenticated.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = strings.TrimSpace(r.Header.Get(UserHeader))
	}
	if email == "" {
		BadRequestError("email is required").Write(w)
		return
	}
	sess, err := s.deps.Roster.Login(r.Context(), email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(newSessionResponse(sess)).Write(w)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(newSessionResponse(sessionFrom(r.Context()))).Write(w)
}

type metricsResponse struct {
	Requests   trace.Metrics             `json:"requests"`
	RateLimit  ratelimit.Metrics         `json:"rateLimit"`
	Security   security.DetectionMetrics `json:"security"`
	Cache      map[string]cacheStats     `json:"cache"`
	Generation uint64                    `json:"generation"`
}

type cacheStats struct {
	Size   int    `json:"size"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	yh, ym := s.yearlyCache.Stats()
	mh, mm := s.monthlyCache.Stats()
	caches := map[string]cacheStats{
		"yearly":  {Size: s.yearlyCache.Size(), Hits: yh, Misses: ym},
		"monthly": {Size: s.monthlyCache.Size(), Hits: mh, Misses: mm},
	}
	NewJSONResponse().Data(metricsResponse{
		Requests:   s.tracer.GetMetrics(),
		RateLimit:  s.limiter.GetMetrics(),
		Security:   s.detector.GetMetrics(),
		Cache:      caches,
		Generation: s.deps.Book.Generation(),
	}).Write(w)
}

// handleExport streams a backup of every collection read fresh from the
// backend.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Exporter.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := snap.JSON()
	if err != nil {
		s.writeError(w, r, fmt.Errorf("encode snapshot: %w", err))
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Backup exported",
		log.FieldUserEmail, sessionFrom(r.Context()).User.Email,
		"transactions", len(snap.Transactions),
		"clients", len(snap.Clients),
		"users", len(snap.Users))
	NewJSONResponse().Attachment(snap.FileName()).Raw(body).Write(w)
}

type reloadResponse struct {
	Applied    bool                  `json:"applied"`
	Generation uint64                `json:"generation"`
	Sweep      *services.SweepResult `json:"sweep,omitempty"`
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	applied, err := s.deps.Book.Load(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(reloadResponse{Applied: applied, Generation: s.deps.Book.Generation()}).Write(w)
}

// handleSweep marks overdue payables now and reloads the view. It is a
// write, so read-only sessions are refused.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if !sessionFrom(r.Context()).CanWrite() {
		s.writeError(w, r, services.ErrReadOnlySession)
		return
	}
	res, err := s.deps.Book.LoadAfterSweep(r.Context(), s.deps.Sweeper)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateDashboards()
	NewJSONResponse().Data(reloadResponse{
		Applied:    true,
		Generation: s.deps.Book.Generation(),
		Sweep:      &res,
	}).Write(w)
}
