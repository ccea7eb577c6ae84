package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vida/internal/amqp"
	"vida/internal/auth"
	"vida/internal/backend"
	"vida/internal/cache"
	"vida/internal/config"
	apphttp "vida/internal/http"
	applog "vida/internal/log"
	"vida/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Item store per DATA_BACKEND.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize item store", "error", err)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Store cleanup failed", "error", err)
			}
		}()
	}

	// Derived view caches: Redis when configured, in-process LRU otherwise.
	caches, cacheManager := buildCaches(ctx, cfg, logger)
	if cacheManager != nil {
		cacheManager.StartCleanup(10 * time.Minute)
		defer cacheManager.Stop()
	}

	// Change events feed the backup worker. Publishing is best effort, so
	// a missing broker only disables the backup.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without item events", "error", err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	jwt := auth.NewJWT(cfg.JWTSecret, cfg.JWTTTL)
	authn := auth.NewAuthenticator(jwt, cfg.UserID, cfg.UserEmail, cfg.PasswordHash)

	items := services.NewItemService(result.Store, caches, events)
	stats := services.NewStatsService(result.Store, caches, cfg.Location())

	srv := apphttp.NewServer(":"+cfg.Port, authn, items, stats)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting vida server", "port", cfg.Port, "backend", cfg.DataBackend, "timezone", cfg.Timezone)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

func buildCaches(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*services.ViewCaches, *cache.Manager) {
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("Failed to connect to Redis, falling back to in-process caches", "error", err)
		} else {
			logger.Info("Using Redis view caches")
			return &services.ViewCaches{
				TaskStats:        cache.NewRedisCache[services.TaskStats](client, "stats:tasks", cfg.CacheTTL),
				TransactionStats: cache.NewRedisCache[services.TransactionStats](client, "stats:transactions", cfg.CacheTTL),
				Timeline:         cache.NewRedisCache[[]services.TimelineGroup](client, "timeline", cfg.CacheTTL),
			}, nil
		}
	}

	taskCache := cache.NewLRUCache[services.TaskStats](cfg.CacheSize, cfg.CacheTTL)
	txCache := cache.NewLRUCache[services.TransactionStats](cfg.CacheSize, cfg.CacheTTL)
	timelineCache := cache.NewLRUCache[[]services.TimelineGroup](cfg.CacheSize, cfg.CacheTTL)

	manager := cache.NewManager()
	manager.Register(taskCache)
	manager.Register(txCache)
	manager.Register(timelineCache)

	return &services.ViewCaches{
		TaskStats:        taskCache,
		TransactionStats: txCache,
		Timeline:         timelineCache,
	}, manager
}
