package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/warebridge/stocksync/internal/adapter/handler"
	"github.com/warebridge/stocksync/internal/adapter/magento"
	"github.com/warebridge/stocksync/internal/adapter/storage"
	"github.com/warebridge/stocksync/internal/app"
	"github.com/warebridge/stocksync/internal/core/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	logger.Info("stocksync starting",
		slog.String("version", app.Version),
		slog.String("env", cfg.AppEnv),
	)

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Error("open mysql", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Error("ping mysql", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("connected to inventory database")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("ping redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()
	logger.Info("connected to settings store")

	inventoryRepo := storage.NewMySQLAdapter(db)
	settingsRepo := storage.NewRedisSettings(rdb)

	// Connection settings are read once at startup; behavior flags (enable,
	// dry-run, event toggles) are re-read from the settings store per event.
	settings, err := settingsRepo.Load(ctx)
	if err != nil {
		logger.Error("load sync settings", slog.Any("error", err))
		os.Exit(1)
	}
	if settings.RemoteURL == "" || settings.AccessToken == "" {
		logger.Warn("remote catalog not configured, syncs will be abandoned until MAGENTO_URL and ACCESS_TOKEN are set")
	}

	catalog := magento.NewClient(magento.Config{
		BaseURL:     settings.RemoteURL,
		AccessToken: settings.AccessToken,
		Timeout:     settings.Timeout,
		VerifySSL:   settings.VerifySSL,
	}, logger)

	syncService := service.NewSyncService(inventoryRepo, settingsRepo, catalog, logger)
	httpHandler := handler.NewHTTPHandler(syncService, logger)

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Get("/healthz", httpHandler.HealthCheck)
	router.Route("/api/v1", func(r chi.Router) {
		r.With(httprate.LimitByIP(cfg.EventRateLimit, cfg.EventRateWindow)).
			Post("/events", httpHandler.StockEvent)
		r.Post("/connection/test", httpHandler.TestConnection)
	})

	httpServer := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}
	logger.Info("stopped")
}
