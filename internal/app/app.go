package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/vocaquiz/vocaquiz-backend/internal/cache"
	"github.com/vocaquiz/vocaquiz-backend/internal/db"
	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	dbService, err := db.New(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := dbService.DB()

	catalogCache := wireCatalogCache(cfg, log)

	if cfg.CatalogPath != "" {
		cat, err := db.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("load reward catalog: %w", err)
		}
		if err := dbService.SeedCatalog(context.Background(), cat); err != nil {
			log.Sync()
			return nil, fmt.Errorf("seed reward catalog: %w", err)
		}
		catalogCache.Invalidate(context.Background())
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, catalogCache)
	handlerset := wireHandlers(log, serviceset)
	middlewareset := wireMiddleware(log, serviceset)
	router := wireRouter(cfg, handlerset, middlewareset)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

// wireCatalogCache returns nil when Redis is not configured; the cache
// type treats a nil instance as a permanent miss.
func wireCatalogCache(cfg Config, log *logger.Logger) *cache.CatalogCache {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, running without catalog cache")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return cache.NewCatalogCache(rdb, log)
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
