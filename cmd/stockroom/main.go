package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/stockroom-ims/stockroom/internal/app"
	"github.com/stockroom-ims/stockroom/internal/inventory"
	"github.com/stockroom-ims/stockroom/internal/notify"
	"github.com/stockroom-ims/stockroom/internal/observability"
	"github.com/stockroom-ims/stockroom/internal/platform/cache"
	"github.com/stockroom-ims/stockroom/internal/platform/db"
	"github.com/stockroom-ims/stockroom/internal/shared"
	"github.com/stockroom-ims/stockroom/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Default().Warn("load .env", slog.Any("error", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	dbpool, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "stockroom_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	mailer := notify.NewSMTPSender(cfg.SMTP())
	if !mailer.Configured() {
		logger.Warn("EMAIL_HOST_USER or EMAIL_HOST_PASSWORD not set, low-stock alerts will fail")
	}

	repo := inventory.NewRepository(dbpool)
	alerts := inventory.NewStockAlert(repo, mailer, cfg.StockAlertThreshold, logger, metrics)
	catalog := inventory.NewCatalog(repo, alerts, logger)
	ledger := inventory.NewLedger(repo, repo, alerts, logger)
	invoicer := inventory.NewInvoicer(repo, repo, repo, logger)
	inventoryHandler := inventory.NewHandler(logger, catalog, ledger, invoicer, templates, csrfManager, cfg.StockAlertThreshold)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		InventoryHandler: inventoryHandler,
		Database:         repo,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
