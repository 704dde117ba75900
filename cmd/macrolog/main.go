package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/macrolog/internal/config"
	"github.com/dukerupert/macrolog/internal/database"
	"github.com/dukerupert/macrolog/internal/inference"
	"github.com/dukerupert/macrolog/internal/logging"
	"github.com/dukerupert/macrolog/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	llm := inference.NewClient(cfg.AnthropicAPIKey,
		inference.WithBaseURL(cfg.AnthropicBaseURL),
		inference.WithModel(cfg.AnthropicModel),
		inference.WithTimeout(cfg.InferenceTimeout),
	)
	if !llm.Configured() {
		slog.Warn("ANTHROPIC_API_KEY not set, food parsing will fail")
	}

	srv := server.New(db, llm, server.Config{
		JWTSecret:      cfg.JWTSecret,
		OtherPolicy:    cfg.OtherPolicy,
		ParseRateLimit: cfg.ParseRateLimit,
		OriginPatterns: cfg.AllowedOrigins,
		AdminUsers:     cfg.AdminUsers,
		Backup:         cfg.Backup,
	}, logger)

	backups := srv.BackupManager()
	backups.Start(context.Background())

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Food parsing waits on the model, so writes get the inference
		// timeout plus headroom.
		WriteTimeout: cfg.InferenceTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := srv.RateLimiter().Cleanup(); n > 0 {
					slog.Debug("cleaned up rate limit windows", "count", n)
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("macrolog starting", "addr", ":"+cfg.Port, "db", cfg.DBPath, "model", cfg.AnthropicModel)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	backups.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
