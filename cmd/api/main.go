package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-catalog/config"
	"storefront-catalog/internal/delivery/http/middleware"
	v1 "storefront-catalog/internal/delivery/http/v1"
	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/infrastructure/cache"
	"storefront-catalog/internal/repository/memory"
	"storefront-catalog/internal/repository/postgres"
	"storefront-catalog/internal/repository/redis"
	"storefront-catalog/internal/usecase"
	"storefront-catalog/pkg/logger"

	"github.com/NYTimes/gziphandler"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Catalog store: Postgres when a DSN is set, otherwise the JSON fixture
	var (
		store      domain.CatalogStore
		categories domain.CategoryRepository
		closeDB    = func() {}
	)
	if cfg.DBUrl != "" {
		pool, err := postgres.NewPgxPool(rootCtx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		log.Info().Msg("Successfully connected to PostgreSQL via pgx")
		store = postgres.NewCatalogStore(pool)
		categories = postgres.NewCategoryRepository(pool)
		closeDB = pool.Close
	} else {
		fixture, err := memory.LoadFixture(cfg.CatalogFixture)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load catalog fixture")
		}
		mem := memory.NewCatalogStore(fixture)
		store, categories = mem, mem
		log.Info().Int("products", len(fixture.Products)).Str("fixture", cfg.CatalogFixture).Msg("Serving in-memory catalog")
	}

	// Query results and categories: default 30m, cleanup every 10m
	memCache := cache.NewMemoryCache(30*time.Minute, 10*time.Minute)
	if cfg.CacheQueryTTL > 0 {
		store = cache.NewCatalogStore(store, memCache, cfg.CacheQueryTTL)
	}

	// Preference store: Redis when configured, process memory otherwise
	var prefs domain.PreferenceStore = memory.NewPreferenceStore(cache.NewMemoryCache(0, 0))
	if cfg.RedisURL != "" {
		redisPrefs, err := redis.NewPreferenceStore(rootCtx, cfg.RedisURL, cfg.RedisDB)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, view density preferences kept in memory")
		} else {
			prefs = redisPrefs
			defer redisPrefs.Close()
		}
	}

	// Browse sessions expire after SessionIdleTTL without access
	sessionCache := cache.NewMemoryCache(cfg.SessionIdleTTL, time.Minute)
	sessions := usecase.NewSessionRegistry(rootCtx, store, prefs, sessionCache, cfg)

	catalogUC := usecase.NewCatalogUsecase(store, categories, memCache, cfg)

	mux := http.NewServeMux()
	v1.RegisterRoutes(mux, v1.NewCatalogHandler(catalogUC), v1.NewBrowseHandler(sessions))

	rateLimiter := middleware.NewRateLimiter(
		rootCtx,
		map[middleware.Scope]middleware.ScopeLimit{
			middleware.ScopeRead:  {Limit: rate.Limit(cfg.RateLimitRPS), Burst: cfg.RateLimitBurst},
			middleware.ScopeWrite: {Limit: rate.Limit(cfg.RateLimitWriteRPS), Burst: cfg.RateLimitWriteBurst},
		},
		time.Minute,   // cleanup period
		3*time.Minute, // client TTL
	)

	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()
	logger.ServiceStart("storefront-catalog", "v1", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	sessions.Shutdown()
	cancelRoot()
	closeDB()

	logger.ServiceStop("storefront-catalog")
}
