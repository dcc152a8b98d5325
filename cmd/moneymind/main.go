package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"moneymind/internal/auth"
	"moneymind/internal/cli"
	"moneymind/internal/config"
	apphttp "moneymind/internal/http"
	"moneymind/internal/log"
	"moneymind/internal/metrics"
	"moneymind/internal/services"
)

func main() {
	cfg, err := cli.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, os.Stdout, log.ComponentApp)

	if err := cfg.Validate(); err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	if err := run(cfg, logger); err != nil {
		cli.Fatal(logger, "Server error", err)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.ShutdownContext(context.Background(), logger)
	defer cancel()

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Users:        services.NewUserService(res.Store, auth.NewHasher(cfg.BcryptCost), tokens, res.Publisher),
		Transactions: services.NewTransactionService(res.Store, res.Publisher),
		Goals:        services.NewGoalService(res.Store, res.Publisher),
		Dashboard:    services.NewDashboardService(res.Store),
		Activity:     services.NewActivityService(res.Store),
		Tokens:       tokens,
		Store:        res.Store,
		Metrics:      metrics.New(),
		Logger:       logger,
	}, apphttp.Options{
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		InrPerUSD:          decimal.NewFromFloat(cfg.ExchangeRateINRUSD),
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting moneymind server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"activity_events", res.Publisher != nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
