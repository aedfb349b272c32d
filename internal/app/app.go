// Package app wires the service together: storage, caches, limiter, click
// pipeline and HTTP routes. main and the end-to-end tests both build the
// service through here.
package app

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"snaplink/internal/cache"
	"snaplink/internal/clicks"
	"snaplink/internal/config"
	"snaplink/internal/controllers"
	"snaplink/internal/database"
	"snaplink/internal/jwt"
	"snaplink/internal/limiter"
	"snaplink/internal/metrics"
	"snaplink/internal/middleware"
	"snaplink/internal/repository"
	"snaplink/internal/resolver"
	"snaplink/internal/service"
	"snaplink/internal/stats"
)

type App struct {
	Router   *gin.Engine
	Metrics  *metrics.Metrics
	Stats    stats.Store
	Recorder *clicks.Recorder
	JWT      *jwt.JWTService

	db          *sql.DB
	stopCleanup chan struct{}
}

// New builds the service from configuration. Without DATABASE_URL it runs on
// the in-memory store (dev/test mode); without REDIS_URL the shared cache
// layer is skipped. Both degradations are logged, not fatal.
func New(cfg *config.Config) (*App, error) {
	bucket := time.Duration(cfg.StatsBucketMinutes) * time.Minute

	var db *sql.DB
	var linkRepo repository.LinkRepository
	var statsStore stats.Store

	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.NewConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db); err != nil {
			db.Close()
			return nil, err
		}
		linkRepo = repository.NewLinkRepository(db)
		statsStore = repository.NewClickRepository(db, bucket)
	} else {
		log.Println("No DATABASE_URL set, using in-memory store")
		linkRepo = repository.NewMemoryLinkRepository()
		statsStore = stats.NewMemory(bucket)
	}

	// Shared cache is optional - continue if Redis is unavailable
	var shared cache.Cache
	if cfg.RedisURL != "" {
		var err error
		shared, err = cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: failed to connect to Redis (%v). Continuing without shared cache.", err)
			shared = nil
		} else {
			log.Println("Connected to Redis cache")
		}
	}

	resolution := cache.NewResolution(
		cfg.CacheSize,
		time.Duration(cfg.CacheTTLSeconds)*time.Second,
		time.Duration(cfg.NegativeTTLSeconds)*time.Second,
		shared,
	)

	m := metrics.New()

	recorder := clicks.NewRecorder(
		statsStore,
		m,
		cfg.ClickQueueCapacity,
		cfg.ClickRetryMax,
		time.Duration(cfg.ClickRetryBaseMS)*time.Millisecond,
	)
	recorder.Start()

	res := resolver.New(linkRepo, resolution, m, time.Duration(cfg.LookupTimeoutMS)*time.Millisecond)
	linkService := service.NewLinkService(linkRepo, resolution, cfg.SlugLength, cfg.SlugAlphabet, cfg.SlugMaxAttempts)
	jwtService := jwt.NewJWTService(cfg.JWTSecret, 24*time.Hour)

	// One limiter per route class: lenient for visitor redirects, strict for
	// the API surface
	redirectLimiter := limiter.New(cfg.RedirectLimit.MaxRequests, time.Duration(cfg.RedirectLimit.WindowSeconds)*time.Second)
	apiLimiter := limiter.New(cfg.APILimit.MaxRequests, time.Duration(cfg.APILimit.WindowSeconds)*time.Second)

	stopCleanup := make(chan struct{})
	go redirectLimiter.CleanupLoop(stopCleanup)
	go apiLimiter.CleanupLoop(stopCleanup)

	redirectController := controllers.NewRedirectController(res, recorder, cfg.FingerprintSalt)
	linksController := controllers.NewLinksController(linkService, cfg.BaseURL)
	statsController := controllers.NewStatsController(statsStore, m)
	qrcodeController := controllers.NewQRCodeController(cfg.BaseURL)

	router := gin.Default()

	// Health check endpoint (no rate limiting)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Redirect endpoint with the lenient route class
	router.GET("/:slug",
		middleware.RateLimit(redirectLimiter, cfg.RedirectLimit.KeyExtractor, m),
		redirectController.Redirect)

	// API routes with the strict route class
	api := router.Group("/api")
	api.Use(middleware.RateLimit(apiLimiter, cfg.APILimit.KeyExtractor, m))
	{
		// Public lookups: preview goes through limiter and cache but never
		// records a click
		api.GET("/links/preview/:slug", redirectController.Preview)
		api.GET("/redirect/stats", statsController.Stats)
		api.GET("/metrics", statsController.Metrics)
		api.GET("/links/:slug/qrcode", qrcodeController.GenerateQRCode)

		// Admin routes - require JWT authentication
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtService))
		{
			protected.POST("/links", linksController.Create)
			protected.GET("/links", linksController.List)
			protected.PATCH("/links/:slug", linksController.UpdateTarget)
			protected.DELETE("/links/:slug", linksController.Deactivate)
		}
	}

	return &App{
		Router:      router,
		Metrics:     m,
		Stats:       statsStore,
		Recorder:    recorder,
		JWT:         jwtService,
		db:          db,
		stopCleanup: stopCleanup,
	}, nil
}

// Close drains the click queue and releases resources. Stop the HTTP server
// before calling Close.
func (a *App) Close(ctx context.Context) error {
	close(a.stopCleanup)

	err := a.Recorder.Close(ctx)

	if a.db != nil {
		if cerr := a.db.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
