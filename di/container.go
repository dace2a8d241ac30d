package di

import (
	"context"
	"log"
	"time"

	"quadrant-server/api"
	"quadrant-server/config"
	"quadrant-server/dao/redis"
	"quadrant-server/db"
	"quadrant-server/server"
	"quadrant-server/server/handlers"
	services "quadrant-server/service"
	"quadrant-server/util"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
)

// Container holds all application dependencies.
type Container struct {
	Config                   *config.Config
	RedisClient              db.RedisClient
	RedisSeriesDao           *redis.RedisSeriesDAO
	SeriesCache              services.SeriesCache
	WorkbookService          *services.WorkbookService
	QuadrantRenderer         *services.QuadrantRenderer
	WorkbookRefresherService *services.WorkbookRefresherService
	WorkbookHandler          *handlers.WorkbookHandler
	MuxRouter                *mux.Router
	Router                   *server.Router
	QuadrantHttpServer       *server.QuadrantHttpServer
}

// NewContainer initializes and wires up all dependencies.
func NewContainer(cfg *config.Config) *Container {
	log.Printf("initializing container - addr: %s, redis enabled: %v", cfg.HTTPAddr, cfg.RedisEnabled)
	ctx := context.Background()

	// The in-process tier always exists; redis is layered behind it when reachable
	var seriesCache services.SeriesCache
	var redisClient db.RedisClient
	var redisSeriesDao *redis.RedisSeriesDAO

	if cfg.RedisEnabled {
		redisInternalClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		client := db.NewGoRedisClient(ctx, redisInternalClient)
		if err := client.Ping(); err != nil {
			log.Printf("Redis unavailable at %s, using in-memory series cache only: %v", cfg.RedisAddress, err)
			redisInternalClient.Close()
		} else {
			redisClient = client
			redisSeriesDao = redis.NewRedisSeriesDAO(redisClient)
			// redis keeps evicted series, so the memory tier may forget them
			memoryCache := services.NewExpiringMemorySeriesCache(time.Duration(cfg.MemoryCacheMinutes) * time.Minute)
			seriesCache = services.NewTieredSeriesCache(memoryCache, redisSeriesDao)
		}
	}
	if seriesCache == nil {
		seriesCache = services.NewMemorySeriesCache()
	}

	layout := util.WorkbookLayout{
		SaleSheet:    cfg.SaleSheet,
		RentSheet:    cfg.RentSheet,
		PeriodColumn: cfg.PeriodColumn,
		SkipRows:     cfg.SkipRows,
	}
	workbookService := services.NewWorkbookService(layout, seriesCache)
	quadrantRenderer := services.NewQuadrantRenderer(cfg.ZeroLines)

	var refresher *services.WorkbookRefresherService
	if cfg.WorkbookSourceURL != "" {
		httpClient := api.NewHTTPClient(cfg.WorkbookSourceURL)
		httpClient.MaxBytes = cfg.MaxUploadMB << 20
		refresher = services.NewWorkbookRefresherService(workbookService, httpClient, cfg.WorkbookSourceURL)
	}

	workbookHandler := handlers.NewWorkbookHandler(workbookService, quadrantRenderer, cfg.MaxUploadMB<<20)

	// Initialize mux router
	muxRouter := mux.NewRouter()

	// Initialize router
	router := server.NewRouter(workbookHandler, muxRouter)

	quadrantHttpServer := server.NewQuadrantHttpServer(cfg.HTTPAddr, router, muxRouter)

	return &Container{
		Config:                   cfg,
		RedisClient:              redisClient,
		RedisSeriesDao:           redisSeriesDao,
		SeriesCache:              seriesCache,
		WorkbookService:          workbookService,
		QuadrantRenderer:         quadrantRenderer,
		WorkbookRefresherService: refresher,
		WorkbookHandler:          workbookHandler,
		MuxRouter:                muxRouter,
		Router:                   router,
		QuadrantHttpServer:       quadrantHttpServer,
	}
}
