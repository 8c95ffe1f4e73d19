package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/developia-II/feedback-analyzer-backend/internal/auth"
	"github.com/developia-II/feedback-analyzer-backend/internal/clock"
	"github.com/developia-II/feedback-analyzer-backend/internal/database"
	"github.com/developia-II/feedback-analyzer-backend/internal/handlers"
	"github.com/developia-II/feedback-analyzer-backend/internal/metrics"
	"github.com/developia-II/feedback-analyzer-backend/internal/ratelimit"
	"github.com/developia-II/feedback-analyzer-backend/internal/router"
	"github.com/developia-II/feedback-analyzer-backend/internal/services"
	"github.com/developia-II/feedback-analyzer-backend/internal/startup"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg)

	if cfg.AIAPIKey == "" {
		return errors.New("AI_API_KEY (or GOOGLE_API_KEY) is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	store, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBName)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("closing store", "error", err)
		}
	}()

	m := metrics.New()
	seq := startup.New(store, startup.Options{
		AdminUsername:   cfg.AdminUsername,
		AdminPassword:   cfg.AdminPassword,
		AdminForceReset: cfg.AdminForceReset,
		DefaultModel:    cfg.AIDefaultModel,
	}, logger)
	seq.OnAttempt = m.StartupAttempt
	report, err := seq.EnsureReady(ctx, cfg.StartupRetries, cfg.StartupBaseDelay)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	logger.Info("store ready", "attempts", report.Attempts)

	realClock := clock.Real{}
	gen := services.NewOpenAIGenerator(cfg.AIAPIKey, cfg.AIBaseURL)
	tokens := auth.NewTokenService([]byte(cfg.SecretKey), cfg.AccessTokenTTL, realClock)

	h := &handlers.Handler{
		Feedback: services.NewFeedbackService(store, services.NewGateway(gen, m, logger), cfg.AIDefaultModel, m, logger),
		Products: services.NewProductService(store),
		Admin:    services.NewAdminService(store, tokens, logger),
		Models:   services.NewModelCatalog(gen, cfg.ModelCacheTTL, realClock),
		Tokens:   tokens,
		Limiter:  ratelimit.New(realClock),
		Store:    store,
		Metrics:  m,
		Logger:   logger,
	}
	app := router.New(h, router.Options{
		FrontendURL:     cfg.FrontendURL,
		GlobalRateLimit: cfg.GlobalRateLimit,
		AccessLog:       true,
		Logger:          logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "model", cfg.AIDefaultModel)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
