package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rlindsey/tally/internal/auth"
	"github.com/rlindsey/tally/internal/habit"
	"github.com/rlindsey/tally/internal/handler"
	"github.com/rlindsey/tally/internal/middleware"
	"github.com/rlindsey/tally/internal/stats"
	"github.com/rlindsey/tally/internal/store"
	ws "github.com/rlindsey/tally/internal/websocket"
)

// Config holds the server-level knobs main reads from the environment.
type Config struct {
	JWTSecret string
	JWTTTL    time.Duration
	WeekStart time.Weekday
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	tokens      *auth.Tokens
	authH       *handler.AuthHandler
	habitH      *handler.HabitHandler
	completionH *handler.CompletionHandler
	statsH      *handler.StatsHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)

	userStore := store.NewUserStore(db)
	habitStore := store.NewHabitStore(db)
	completionStore := store.NewCompletionStore(db)

	registry := habit.NewRegistry(habitStore)
	ledger := habit.NewLedger(habitStore, completionStore)
	statsSvc := stats.NewService(habitStore, completionStore, ledger, cfg.WeekStart)

	return &Server{
		db:          db,
		hub:         hub,
		tokens:      tokens,
		authH:       handler.NewAuthHandler(userStore, tokens, logger.With("component", "auth")),
		habitH:      handler.NewHabitHandler(registry, ledger, hub, logger.With("component", "habit")),
		completionH: handler.NewCompletionHandler(ledger, statsSvc, hub, logger.With("component", "completion")),
		statsH:      handler.NewStatsHandler(statsSvc, logger.With("component", "stats")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens)
	outerMux.Handle("/api/", authMiddleware(protectedMux))
	outerMux.Handle("GET /ws", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Account routes
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("PUT /api/auth/profile", s.authH.UpdateProfile)

	// Habit routes
	mux.HandleFunc("GET /api/habits", s.habitH.List)
	mux.HandleFunc("POST /api/habits", s.habitH.Create)
	mux.HandleFunc("PUT /api/habits/{id}", s.habitH.Update)
	mux.HandleFunc("DELETE /api/habits/{id}", s.habitH.Delete)
	mux.HandleFunc("GET /api/habits/{id}", s.habitH.Get)

	// Completion routes
	mux.HandleFunc("POST /api/habits/{id}/complete", s.completionH.Mark)
	mux.HandleFunc("DELETE /api/habits/{id}/complete", s.completionH.Unmark)
	mux.HandleFunc("GET /api/habits/{id}/completions", s.completionH.ListByHabit)
	mux.HandleFunc("GET /api/completions", s.completionH.Heatmap)

	// Statistics
	mux.HandleFunc("GET /api/stats", s.statsH.Summary)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
