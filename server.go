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

	"mixologue-backend/config"
	"mixologue-backend/internal/api"
	"mixologue-backend/internal/api/v1/cocktail"
	"mixologue-backend/internal/api/v1/status"
	"mixologue-backend/internal/cache"
	"mixologue-backend/internal/database"
	"mixologue-backend/internal/imagegen"
	"mixologue-backend/internal/middleware"
	"mixologue-backend/internal/services"
	"mixologue-backend/internal/storage"
	"mixologue-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

func setup(envFile string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if err := logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, logger.Log, nil
}

func openDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg, log.Named("database"))
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func migrate(envFile string) error {
	cfg, log, err := setup(envFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("Database schema is up to date", zap.String("driver", cfg.DBDriver))
	return nil
}

func serve(ctx context.Context, envFile string) error {
	cfg, log, err := setup(envFile)
	if err != nil {
		return err
	}
	defer logger.Sync()
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	var (
		c       cache.Cache
		limiter middleware.Limiter
	)
	if cfg.RedisEnabled() {
		rdb, err := database.ConnectRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
		c = cache.NewRedisCache(rdb)
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow, cfg.RateLimitBlock)
		log.Info("Using Redis for cache and rate limiting", zap.String("addr", cfg.RedisFullAddr()))
	} else {
		c = cache.NewMemoryCache(services.CocktailCacheDuration, 10*time.Minute)
		limiter = middleware.NewLocalLimiter(cfg.RateLimit, cfg.RateLimitWindow, cfg.RateLimitBlock)
		log.Info("REDIS_HOST not set, using in-process cache and rate limiting")
	}

	store, err := storage.New(ctx, cfg, log.Named("storage"))
	if err != nil {
		return fmt.Errorf("failed to init %s storage: %w", cfg.StorageDriver, err)
	}

	statusOpts := status.Options{
		Version:       version,
		Database:      pingerFunc(func(ctx context.Context) error { return pingDB(ctx, db) }),
		Cache:         c,
		StorageDriver: cfg.StorageDriver,
	}

	var generator services.CocktailGenerator
	mistral, err := services.NewMistralService(cfg, log.Named("mistral"))
	switch {
	case errors.Is(err, services.ErrMissingAPIKey):
		log.Warn("MISTRAL_API_KEY not set, cocktail generation is disabled")
	case err != nil:
		return err
	default:
		generator = mistral
		statusOpts.LLM = mistral
		statusOpts.LLMModel = cfg.MistralModel
	}

	providers := imagegen.NewProviders(cfg, store, log.Named("imagegen"))
	chain := imagegen.NewOrchestrator(providers, cfg.DefaultImage, cfg.ImageProviderTimeout, log.Named("imagegen"))
	statusOpts.Chain = chain
	for _, p := range chain.Status() {
		log.Info("Image provider",
			zap.String("name", p.Name), zap.Int("priority", p.Priority), zap.Bool("available", p.Available))
	}

	cocktails := services.NewCocktailService(db, c, store, generator, log.Named("cocktails"))
	images := services.NewImageService(cocktails, chain, log.Named("images"))

	router := api.NewRouter(api.Deps{
		Config:    cfg,
		Cocktails: cocktail.NewHandler(cocktails, images, log.Named("cocktail")),
		Status:    status.NewHandler(statusOpts, log.Named("status")),
		Limiter:   limiter,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout(cfg, len(providers)),
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return err
	}
	log.Info("Server stopped")
	return nil
}

// writeTimeout leaves room for a full walk of the image chain or for every
// LLM retry, whichever is longer.
func writeTimeout(cfg *config.Config, providers int) time.Duration {
	chain := time.Duration(providers) * cfg.ImageProviderTimeout
	llm := 3*cfg.MistralTimeout + 3*time.Second
	if llm > chain {
		chain = llm
	}
	return chain + 10*time.Second
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
