package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/macrolog/internal/auth"
	"github.com/dukerupert/macrolog/internal/backup"
	"github.com/dukerupert/macrolog/internal/foodparse"
	"github.com/dukerupert/macrolog/internal/handler"
	"github.com/dukerupert/macrolog/internal/ledger"
	"github.com/dukerupert/macrolog/internal/middleware"
	"github.com/dukerupert/macrolog/internal/nutrition"
	"github.com/dukerupert/macrolog/internal/profile"
	ws "github.com/dukerupert/macrolog/internal/websocket"
)

type Config struct {
	JWTSecret   string
	OtherPolicy nutrition.OtherPolicy
	// ParseRateLimit is the per-user budget of POST /api/log per minute.
	ParseRateLimit int
	// OriginPatterns restricts websocket origins; empty allows any.
	OriginPatterns []string
	// AdminUsers may list and trigger database snapshots.
	AdminUsers []string
	Backup     backup.Config
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	verifier    *auth.Verifier
	logH        *handler.LogHandler
	foodH       *handler.FoodHandler
	profileH    *handler.ProfileHandler
	trackingH   *handler.TrackingHandler
	targetsH    *handler.TargetsHandler
	snapshotH   *handler.SnapshotHandler
	backups     *backup.Manager
	rateLimiter *middleware.RateLimiter
	cfg         Config
	logger      *slog.Logger
}

// New wires the services over db. completer is the language model used to
// parse food descriptions.
func New(db *sql.DB, completer foodparse.Completer, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	parser := foodparse.NewParser(completer, logger.With("component", "foodparse"))
	led := ledger.New(db, parser, logger.With("component", "ledger"))
	profiles := profile.NewService(db, cfg.OtherPolicy, logger.With("component", "profile"))

	handlerLogger := logger.With("component", "handler")

	backups := backup.NewManager(cfg.Backup, db, logger.With("component", "backup"))

	limit := cfg.ParseRateLimit
	if limit <= 0 {
		limit = 30
	}

	return &Server{
		db:          db,
		hub:         hub,
		verifier:    auth.NewVerifier(cfg.JWTSecret),
		logH:        handler.NewLogHandler(led, hub, handlerLogger),
		foodH:       handler.NewFoodHandler(led, hub, handlerLogger),
		profileH:    handler.NewProfileHandler(profiles, hub, handlerLogger),
		trackingH:   handler.NewTrackingHandler(led, handlerLogger),
		targetsH:    handler.NewTargetsHandler(cfg.OtherPolicy, handlerLogger),
		snapshotH:   handler.NewSnapshotHandler(backups, handlerLogger),
		backups:     backups,
		rateLimiter: middleware.NewRateLimiter(limit, time.Minute),
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the snapshot manager. The caller starts and stops
// its schedule.
func (s *Server) BackupManager() *backup.Manager {
	return s.backups
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	requireUser := middleware.RequireUser(s.verifier)
	outerMux.Handle("/api/", requireUser(protectedMux))
	outerMux.Handle("GET /ws", requireUser(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"), s.cfg.OriginPatterns)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.UserKey)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Meal log
	mux.HandleFunc("POST /api/log", s.rateLimitedHandler(s.logH.Create))
	mux.HandleFunc("GET /api/log/{date}", s.logH.Day)
	mux.HandleFunc("PATCH /api/log/{id}", s.logH.UpdateServings)
	mux.HandleFunc("DELETE /api/log/{id}", s.logH.Delete)

	// Food library
	mux.HandleFunc("GET /api/foods", s.foodH.List)
	mux.HandleFunc("PATCH /api/foods/{id}", s.foodH.Update)
	mux.HandleFunc("DELETE /api/foods/{id}", s.foodH.Delete)

	// Profile and targets
	mux.HandleFunc("GET /api/profile", s.profileH.Get)
	mux.HandleFunc("PUT /api/profile", s.profileH.Update)
	mux.HandleFunc("POST /api/targets/preview", s.targetsH.Preview)

	// Tracking
	mux.HandleFunc("GET /api/tracking/summary", s.trackingH.Summary)

	// Database snapshots (admin only)
	requireAdmin := middleware.RequireAdmin(s.cfg.AdminUsers)
	mux.Handle("GET /api/admin/snapshots", requireAdmin(http.HandlerFunc(s.snapshotH.List)))
	mux.Handle("POST /api/admin/snapshots", requireAdmin(http.HandlerFunc(s.snapshotH.Create)))
}
