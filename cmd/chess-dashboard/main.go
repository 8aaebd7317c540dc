package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/config"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/hub"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/logging"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/pagination"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/providers/chesscom"
	"github.com/XavierBriggs/fortuna/services/chess-dashboard/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger.Desugar())

	if err := run(cfg, logger); err != nil {
		logger.Errorw("chess dashboard stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := storage.Open(connectCtx, cfg.Store, logger)
	connectCancel()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	api := chesscom.New(
		chesscom.WithBaseURL(cfg.ChessCom.BaseURL),
		chesscom.WithUserAgent(cfg.ChessCom.UserAgent),
		chesscom.WithTimeout(cfg.ChessCom.Timeout),
	)

	h := hub.NewHub(logger)
	go h.Run(ctx)

	session := dashboard.NewSession(ctx, api, store, h, dashboard.Config{
		PageSize:        cfg.Board.PageSize,
		Pacing:          pagination.FixedPacing(cfg.Board.LoadMoreDelay),
		DefaultCategory: cfg.Board.DefaultCategory,
	}, logger)
	defer session.Close()

	// Serve immediately; views report loading until the first fetch settles
	go func() {
		view := session.Start()
		logger.Infow("dashboard ready",
			"leaderboards", view.Status,
			"categories", len(view.Categories),
			"players", view.TotalPlayers,
			"active_category", view.ActiveCategory)
	}()

	handler := handlers.NewHandler(ctx, session, h, logger)

	srv := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     handlers.NewRouter(handler, cfg.Server.CORSOrigins, logger),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("chess dashboard listening", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		logger.Infow("shutting down")

		// Give outstanding requests a deadline for completion
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("graceful shutdown failed", "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}
	}

	logger.Infow("shutdown complete")
	return nil
}
