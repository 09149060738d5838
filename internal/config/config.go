package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fourinarow/engine/internal/domain"
	"github.com/fourinarow/engine/pkg/logger"
)

// Search result cache backends.
const (
	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
)

// DefaultJWTSecret signs session tokens when JWT_SECRET is unset. It is only
// fit for local development.
const DefaultJWTSecret = "your-secret-key-change-this-in-production"

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	FrontendURL    string

	BoardRows         int
	BoardColumns      int
	DefaultMode       domain.Mode
	DefaultDifficulty domain.Difficulty
	BotMoveDelay      time.Duration

	SessionIdleTimeout time.Duration
	CleanupInterval    time.Duration

	SearchCache     string
	SearchCacheSize int
	SearchCacheTTL  time.Duration

	RedisURL      string
	RedisPassword string

	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int

	JWTSecret       string
	SessionTokenTTL time.Duration

	WSMessagesPerSecond int
	WSBurst             int
}

func LoadConfig() *Config {
	port := GetEnv("PORT", "8080")
	environment := GetEnv("ENVIRONMENT", "development")

	// Frontend & CORS
	frontendURL := GetEnv("FRONTEND_URL", "http://localhost:5173")
	allowedOrigins := []string{frontendURL}
	for _, origin := range strings.Split(GetEnv("ALLOWED_ORIGINS", ""), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" && trimmed != frontendURL {
			allowedOrigins = append(allowedOrigins, trimmed)
		}
	}

	// Game
	mode, ok := domain.ParseMode(GetEnv("DEFAULT_MODE", string(domain.ModeAI)))
	if !ok {
		logger.Warn("config", "unknown DEFAULT_MODE, using %s", mode)
	}
	difficulty, ok := domain.ParseDifficulty(GetEnv("DEFAULT_DIFFICULTY", string(domain.DifficultyHard)))
	if !ok {
		logger.Warn("config", "unknown DEFAULT_DIFFICULTY, using %s", difficulty)
	}

	// Search cache
	searchCache := strings.ToLower(GetEnv("SEARCH_CACHE", CacheMemory))
	switch searchCache {
	case CacheNone, CacheMemory, CacheRedis, CachePostgres:
	default:
		logger.Warn("config", "unknown SEARCH_CACHE %q, using %s", searchCache, CacheMemory)
		searchCache = CacheMemory
	}

	cfg := &Config{
		Port:           port,
		Environment:    environment,
		AllowedOrigins: allowedOrigins,
		FrontendURL:    frontendURL,

		BoardRows:         GetEnvAsInt("BOARD_ROWS", domain.Rows),
		BoardColumns:      GetEnvAsInt("BOARD_COLUMNS", domain.Columns),
		DefaultMode:       mode,
		DefaultDifficulty: difficulty,
		BotMoveDelay:      time.Duration(GetEnvAsInt("BOT_MOVE_DELAY_MS", 1200)) * time.Millisecond,

		SessionIdleTimeout: time.Duration(GetEnvAsInt("SESSION_IDLE_TIMEOUT_MINUTES", 60)) * time.Minute,
		CleanupInterval:    time.Duration(GetEnvAsInt("CLEANUP_INTERVAL_MINUTES", 10)) * time.Minute,

		SearchCache:     searchCache,
		SearchCacheSize: GetEnvAsInt("SEARCH_CACHE_SIZE", 100_000),
		SearchCacheTTL:  time.Duration(GetEnvAsInt("SEARCH_CACHE_TTL_MINUTES", 24*60)) * time.Minute,

		RedisURL:      GetEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),

		DatabaseURL:          GetEnv("DATABASE_URL", GetEnv("DATABASE_URI", "")),
		DBMaxOpenConns:       GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetimeMin: GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5),

		// Security
		JWTSecret:       GetEnv("JWT_SECRET", DefaultJWTSecret),
		SessionTokenTTL: time.Duration(GetEnvAsInt("SESSION_TOKEN_TTL_HOURS", 24)) * time.Hour,

		WSMessagesPerSecond: GetEnvAsInt("WS_MESSAGES_PER_SECOND", 10),
		WSBurst:             GetEnvAsInt("WS_BURST", 20),
	}

	if cfg.IsProduction() && cfg.JWTSecret == DefaultJWTSecret {
		logger.Warn("config", "JWT_SECRET is not set; session tokens are signed with the built-in default secret")
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Warn("config", "invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
