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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mmuslimabdulj/inscribe/internal/config"
	httpHandler "github.com/mmuslimabdulj/inscribe/internal/delivery/http"
	"github.com/mmuslimabdulj/inscribe/internal/delivery/ws"
	"github.com/mmuslimabdulj/inscribe/internal/logger"
	"github.com/mmuslimabdulj/inscribe/internal/middleware"
	"github.com/mmuslimabdulj/inscribe/internal/repository"
	"github.com/mmuslimabdulj/inscribe/internal/usecase"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Setup(os.Getenv("ENV"), "info").Error("invalid configuration", logger.Err(err))
		os.Exit(1)
	}
	log := logger.Setup(cfg.Env, cfg.LogLevel)

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Error("failed to connect database", logger.Err(err))
		os.Exit(1)
	}
	log.Info("store ready", slog.String("driver", cfg.StoreDriver))

	// Initialize dependencies
	sessions := usecase.NewSessionRegistry(store.Users, usecase.NewPersonaGenerator(), failurePolicy(cfg), log)
	persister := ws.NewPersister(cfg.PersistQueueSize, cfg.StoreTimeout, log)
	hub := ws.NewHub(sessions, store, persister, ws.Options{
		HistorySize:     cfg.MaxHistorySize,
		SendBufferSize:  cfg.SendBufferSize,
		MaxMessageSize:  cfg.MaxMessageSize,
		JoinTimeout:     cfg.JoinTimeout,
		EventRate:       cfg.EventLimit(),
		EventBurst:      cfg.RateLimitEventsBurst,
		PersistDrawings: cfg.PersistDrawings,
		PersistChat:     cfg.PersistChat,
	}, log)

	tokens := ws.NewSessionStore(cfg.SessionTTL)
	hub.SetSessionStore(tokens)

	warmCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	if err := hub.LoadHistory(warmCtx); err != nil {
		log.Warn("drawing history not loaded", logger.Err(err))
	}
	cancel()

	go hub.Run()

	apiLimiter := middleware.NewIPRateLimiter(cfg.APILimit(), cfg.RateLimitAPIBurst)
	wsLimiter := middleware.NewIPRateLimiter(cfg.WSLimit(), cfg.RateLimitWSBurst)

	router := httpHandler.SetupRouter(httpHandler.NewHandler(hub, cfg.AllowedOrigins, log), httpHandler.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		StaticDir:      cfg.StaticDir,
		APILimiter:     apiLimiter,
		WSLimiter:      wsLimiter,
		Log:            log,
	})

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.SecurityHeaders(router),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", "http://localhost:"+cfg.Port), slog.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErr:
		log.Error("server error", logger.Err(err))
		store.Close()
		os.Exit(1)
	case sig := <-quit:
		log.Info("shutting down", slog.String("signal", sig.String()))
	}

	// Forced exit if shutdown hangs
	forced := time.AfterFunc(cfg.ShutdownGrace, func() {
		log.Error("could not close connections in time, forcefully shutting down")
		os.Exit(1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warn("server shutdown", logger.Err(err))
	}
	hub.Stop()
	tokens.Close()
	apiLimiter.Stop()
	wsLimiter.Stop()
	if err := persister.Close(ctx); err != nil {
		log.Warn("pending writes dropped", logger.Err(err))
	}
	if err := store.Close(); err != nil {
		log.Error("close store", logger.Err(err))
	}

	forced.Stop()
	log.Info("server exited gracefully")
}

func openStore(cfg *config.Config) (*repository.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return repository.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()
	return repository.OpenPostgres(ctx, cfg.DatabaseURL)
}

func failurePolicy(cfg *config.Config) usecase.StoreFailurePolicy {
	if cfg.StoreFailurePolicy == config.StoreFailureReject {
		return usecase.Reject
	}
	return usecase.Degrade
}
