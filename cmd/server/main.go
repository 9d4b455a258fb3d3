package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/acp-protocol/bridge/internal/api"
	"github.com/acp-protocol/bridge/internal/config"
	"github.com/acp-protocol/bridge/internal/handlers"
	"github.com/acp-protocol/bridge/internal/mission"
	"github.com/acp-protocol/bridge/internal/relay"
	"github.com/acp-protocol/bridge/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize the durable message log
	var (
		msgLog store.MessageLog
		err    error
	)
	switch cfg.StoreBackend {
	case "sqlite":
		msgLog, err = store.NewSQLiteLog(ctx, cfg.SQLitePath, cfg.LogRetention)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite log init failed")
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("using sqlite message log")
	default:
		msgLog, err = store.NewFileLog(cfg.CommsFile, cfg.LogRetention, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("file log init failed")
		}
		logger.Info().Str("path", cfg.CommsFile).Msg("using file message log")
	}
	defer msgLog.Close()

	// Mission annex writer
	annex := mission.NewWriter(cfg.MissionFile, cfg.AnnexRecipient)

	// Relay hub
	hub := relay.NewHub(relay.Options{
		Mode:         relay.FrameMode(cfg.FrameMode),
		MaxSessions:  cfg.MaxSessions,
		HistoryCap:   cfg.HistoryCap,
		ReplayCount:  cfg.ReplayCount,
		WriteTimeout: cfg.SendTimeout,
		QueueSize:    cfg.SessionQueue,
	}, logger)

	// Create handler and router
	h := handlers.NewHandler(msgLog, annex, hub, cfg, logger)
	router := api.NewRouter(logger, h, hub, cfg.Mode)

	// Announce ourselves so late-joining readers of /messages see a
	// liveness record
	if cfg.Mode == config.ModeBridge {
		if err := h.Announce(ctx, "http://localhost:"+cfg.Port); err != nil {
			logger.Error().Err(err).Msg("failed to store startup announcement")
		}
	}

	// Create server. No global read/write timeouts: websocket sessions are
	// long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("mode", cfg.Mode).
			Str("agent", cfg.AgentID).
			Msg("starting ACP bridge")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
