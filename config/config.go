package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DBUrl         string
	AllowedOrigin string
	// DB Config
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// In-memory catalog (used when DBUrl is empty)
	CatalogFixture string
	// Preference store
	RedisURL string
	RedisDB  int
	// Browsing
	PageSize            int
	SearchDebounce      time.Duration
	DefaultPriceCeiling float64
	FetchTimeout        time.Duration
	SessionIdleTTL      time.Duration
	// Cache
	CacheQueryTTL    time.Duration
	CacheCategoryTTL time.Duration
	// Rate limiting, per client: reads and session mutations
	RateLimitRPS        float64
	RateLimitBurst      int
	RateLimitWriteRPS   float64
	RateLimitWriteBurst int
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: .env for local dev, system env vars otherwise
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBUrl:         getEnv("DB_DSN", ""),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 20),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 2),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		CatalogFixture: getEnv("CATALOG_FIXTURE", ""),

		RedisURL: getEnv("REDIS_URL", ""),
		RedisDB:  getIntEnv("REDIS_DB", 0),

		// Browsing defaults: 36 per page, 400ms search quiescence, 1000 price ceiling
		PageSize:            getIntEnv("PAGE_SIZE", 36),
		SearchDebounce:      getDurationEnv("SEARCH_DEBOUNCE", 400*time.Millisecond),
		DefaultPriceCeiling: getFloatEnv("DEFAULT_PRICE_CEILING", 1000),
		FetchTimeout:        getDurationEnv("FETCH_TIMEOUT", 5*time.Second),
		SessionIdleTTL:      getDurationEnv("SESSION_IDLE_TTL", 30*time.Minute),

		// Cache defaults: 30s query results, 30m categories
		CacheQueryTTL:    getDurationEnv("CACHE_QUERY_TTL", 30*time.Second),
		CacheCategoryTTL: getDurationEnv("CACHE_CATEGORY_TTL", 30*time.Minute),

		RateLimitRPS:        getFloatEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst:      getIntEnv("RATE_LIMIT_BURST", 100),
		RateLimitWriteRPS:   getFloatEnv("RATE_LIMIT_WRITE_RPS", 10),
		RateLimitWriteBurst: getIntEnv("RATE_LIMIT_WRITE_BURST", 20),
	}
}

// Validate reports configuration that would leave the service without a catalog
// or with an unusable page window.
func (c *Config) Validate() error {
	if c.DBUrl == "" && c.CatalogFixture == "" {
		return fmt.Errorf("either DB_DSN or CATALOG_FIXTURE is required")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be at least 1, got %d", c.PageSize)
	}
	if c.SearchDebounce <= 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must be positive, got %s", c.SearchDebounce)
	}
	if c.DefaultPriceCeiling <= 0 {
		return fmt.Errorf("DEFAULT_PRICE_CEILING must be positive, got %v", c.DefaultPriceCeiling)
	}
	return nil
}
