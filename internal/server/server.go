// Package server assembles the HTTP API: routing, middleware chain, and
// lifecycle management.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/FightFi/booster/internal/auth"
	"github.com/FightFi/booster/internal/domain"
	"github.com/FightFi/booster/internal/server/handler"
	"github.com/FightFi/booster/internal/server/middleware"
	"github.com/FightFi/booster/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port               int
	CORSOrigins        []string
	OperatorKeys       []string
	SignatureTTL       time.Duration
	RateLimitPerMinute int // 0 disables rate limiting
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health *handler.HealthHandler
	Events *handler.EventHandler
	Fights *handler.FightHandler
	Boosts *handler.BoostHandler
	Claims *handler.ClaimHandler
	Score  *handler.ScoreHandler
	Audit  *handler.AuditHandler

	// Archives is optional; nil leaves the archive routes unregistered.
	Archives *handler.ArchiveHandler
}

// Server is the HTTP + WebSocket API server for the settlement engine.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the route table and middleware chain. Operator routes
// require an API key; bettor routes require a request signature; read-only
// routes are open. The limiter may be nil.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	operatorAuth := middleware.OperatorAuth(auth.NewOperatorKeySet(cfg.OperatorKeys))
	bettorAuth := middleware.BettorAuth(auth.NewRequestVerifier(cfg.SignatureTTL))

	operator := func(h http.HandlerFunc) http.Handler { return operatorAuth(h) }
	bettor := func(h http.HandlerFunc) http.Handler { return bettorAuth(h) }

	// Health check (no auth).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Operator endpoints.
	mux.Handle("POST /api/events", operator(handlers.Events.CreateEvent))
	mux.Handle("PUT /api/events/{id}/claim-ready", operator(handlers.Events.SetClaimReady))
	mux.Handle("PUT /api/events/{id}/deadline", operator(handlers.Events.SetClaimDeadline))
	mux.Handle("PUT /api/events/{id}/cutoff", operator(handlers.Events.SetEventBoostCutoff))
	mux.Handle("POST /api/events/{id}/purge", operator(handlers.Events.PurgeEvent))
	mux.Handle("PUT /api/events/{id}/fights/{fid}/cutoff", operator(handlers.Fights.SetBoostCutoff))
	mux.Handle("POST /api/events/{id}/fights/{fid}/bonus", operator(handlers.Fights.DepositBonus))
	mux.Handle("PUT /api/events/{id}/fights/{fid}/status", operator(handlers.Fights.UpdateStatus))
	mux.Handle("POST /api/events/{id}/fights/{fid}/cancel", operator(handlers.Fights.Cancel))
	mux.Handle("POST /api/events/{id}/fights/{fid}/result", operator(handlers.Fights.SubmitResult))
	mux.Handle("POST /api/events/{id}/results", operator(handlers.Fights.SubmitResults))

	// Bettor endpoints (signature auth).
	mux.Handle("POST /api/events/{id}/boosts", bettor(handlers.Boosts.PlaceBoosts))
	mux.Handle("PUT /api/events/{id}/boosts", bettor(handlers.Boosts.AddToBoost))
	mux.Handle("POST /api/events/{id}/claims", bettor(handlers.Claims.Claim))
	mux.Handle("POST /api/events/{id}/claims/batch", bettor(handlers.Claims.ClaimBatch))

	// Read-only endpoints.
	mux.HandleFunc("GET /api/events", handlers.Events.ListEvents)
	mux.HandleFunc("GET /api/events/{id}", handlers.Events.GetEvent)
	mux.HandleFunc("GET /api/events/{id}/fights/{fid}", handlers.Fights.GetFight)
	mux.HandleFunc("GET /api/events/{id}/fights/{fid}/pool", handlers.Fights.GetPool)
	mux.HandleFunc("GET /api/events/{id}/fights/{fid}/boosts", handlers.Boosts.ListBoosts)
	mux.HandleFunc("GET /api/events/{id}/fights/{fid}/quote", handlers.Boosts.Quote)
	mux.HandleFunc("GET /api/score", handlers.Score.Score)
	mux.HandleFunc("GET /api/audit", handlers.Audit.List)
	if handlers.Archives != nil {
		mux.HandleFunc("GET /api/archives", handlers.Archives.List)
		mux.HandleFunc("GET /api/archives/{path...}", handlers.Archives.Get)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Middleware chain around the whole mux.
	var h http.Handler = mux
	if limiter != nil && cfg.RateLimitPerMinute > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimitPerMinute, time.Minute)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
