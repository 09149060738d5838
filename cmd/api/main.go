package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fourinarow/engine/internal/config"
	"github.com/fourinarow/engine/internal/domain"
	"github.com/fourinarow/engine/internal/repository/postgres"
	"github.com/fourinarow/engine/internal/repository/redis"
	"github.com/fourinarow/engine/internal/service/bot"
	"github.com/fourinarow/engine/internal/service/cleanup"
	"github.com/fourinarow/engine/internal/service/game"
	transportHttp "github.com/fourinarow/engine/internal/transport/http"
	"github.com/fourinarow/engine/internal/transport/websocket"
	"github.com/fourinarow/engine/pkg/auth"
	"github.com/fourinarow/engine/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			logger.Info("config", "no .env file found")
		}
	}

	cfg := config.LoadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := domain.NewBoardSize(cfg.BoardRows, cfg.BoardColumns); err != nil {
		logger.Fatal("config", "invalid board configuration: %v", err)
	}

	// 1. Search result cache
	cache, pruner, closeCache := openSearchCache(ctx, cfg)
	defer closeCache()

	// 2. Services
	var engineOpts []bot.Option
	if cache != nil {
		engineOpts = append(engineOpts, bot.WithCache(cache))
	}
	engine := bot.NewEngine(engineOpts...)

	sessionManager := game.NewSessionManager(engine, game.Options{
		Rows:       cfg.BoardRows,
		Columns:    cfg.BoardColumns,
		Mode:       cfg.DefaultMode,
		Difficulty: cfg.DefaultDifficulty,
	})
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTokenTTL)

	// 3. Background workers
	cleanupWorker := cleanup.NewWorker(sessionManager, cfg.CleanupInterval, cfg.SessionIdleTimeout)
	if pruner != nil {
		cleanupWorker.Cache = pruner
	}
	cleanupWorker.Start(ctx)

	// 4. Transport
	connManager := websocket.NewConnectionManager()
	wsHandler := websocket.NewHandler(connManager, sessionManager, tokens, websocket.Options{
		BotMoveDelay:      cfg.BotMoveDelay,
		MessagesPerSecond: cfg.WSMessagesPerSecond,
		Burst:             cfg.WSBurst,
		AllowedOrigins:    cfg.AllowedOrigins,
	})
	router := transportHttp.NewRouter(sessionManager, tokens, transportHttp.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		IsProduction:   cfg.IsProduction(),
		Connections:    connManager,
		WebSocket:      wsHandler.HandleWebSocket,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("http", "server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http", "server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("http", "server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http", "server forced to shutdown: %v", err)
	}

	logger.Info("http", "server exited gracefully")
}

// openSearchCache builds the configured cache. Redis or postgres being
// unreachable is not fatal; the in-memory cache is used instead.
func openSearchCache(ctx context.Context, cfg *config.Config) (bot.ResultCache, cleanup.Pruner, func()) {
	noop := func() {}
	memory := func() (bot.ResultCache, cleanup.Pruner, func()) {
		return bot.NewMemoryCache(cfg.SearchCacheSize), nil, noop
	}

	switch cfg.SearchCache {
	case config.CacheNone:
		logger.Info("cache", "search cache disabled")
		return nil, nil, noop

	case config.CacheRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			logger.Warn("redis", "%v. Falling back to in-memory cache.", err)
			return memory()
		}
		cache := redis.NewSearchCache(client, cfg.SearchCacheTTL)
		return cache, nil, func() { cache.Close() }

	case config.CachePostgres:
		if cfg.DatabaseURL == "" {
			logger.Warn("db", "DATABASE_URL not set. Falling back to in-memory cache.")
			return memory()
		}
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
		if err != nil {
			logger.Warn("db", "%v. Falling back to in-memory cache.", err)
			return memory()
		}
		repo := postgres.NewSearchCacheRepo(db, cfg.SearchCacheTTL)
		return repo, repo, func() { closeDB(db) }

	default:
		return memory()
	}
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("db", "close: %v", err)
	}
}
