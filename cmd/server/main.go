package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rideshare/internal/config"
	handlers "rideshare/internal/handlers/shared"
	"rideshare/internal/middleware"
	"rideshare/internal/repositories/mongodb"
	"rideshare/internal/services"
	"rideshare/pkg/cache"
	"rideshare/pkg/database"
	"rideshare/pkg/events"
	"rideshare/pkg/logger"
	"rideshare/pkg/maps"
	"rideshare/pkg/push"
	"rideshare/routes"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		TimeFormat: cfg.Logging.TimeFormat,
		Caller:     cfg.Logging.Caller,
		AppName:    cfg.App.Name,
		Version:    cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx := context.Background()

	// Database
	mongoDB, err := database.NewMongoDB(ctx, &database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		Username:       cfg.Database.Username,
		Password:       cfg.Database.Password,
		AuthSource:     cfg.Database.AuthSource,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongoDB.Close()

	if err := database.NewMigrator(mongoDB.Database, appLogger.Infof).Up(); err != nil {
		appLogger.WithError(err).Fatal("Failed to run migrations")
	}

	// Cache is optional; without Redis every lookup goes to the store or provider
	var cacheService services.CacheService
	redisCache, err := cache.NewRedisCache(ctx, &cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		IdleTimeout:  cfg.Redis.IdleTimeout,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		SSL:          cfg.Redis.SSL,
	})
	if err != nil {
		appLogger.WithError(err).Warn("Redis unavailable, running without cache")
	} else {
		defer redisCache.Close()
		cacheService = services.NewCacheService(redisCache, appLogger, "rideshare", cfg.Matching.ETACacheTTL)
	}

	mapsProvider, err := newMapsProvider(cfg.Maps)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to create maps provider")
	}
	if mapsProvider == nil {
		appLogger.Warn("No maps provider configured, using straight-line estimates")
	}

	var pushProvider push.PushProvider
	if cfg.Push.Enabled {
		fcm, err := push.NewFCMProvider(ctx, cfg.Push.FCM.ProjectID, cfg.Push.FCM.Credentials)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to create FCM provider")
		}
		pushProvider = fcm
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled() {
		kafka := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.RideTopic, cfg.Events.WriteTimeout)
		defer kafka.Close()
		publisher = kafka
	}

	// Repositories
	rideRepo := mongodb.NewRideRepository(mongoDB.Database)
	driverRepo := mongodb.NewDriverRepository(mongoDB.Database, cacheService, cfg.Matching.DriverCacheTTL)
	ratingRepo := mongodb.NewRatingRepository(mongoDB.Database)
	chatRepo := mongodb.NewChatRepository(mongoDB.Database)

	// Services
	geoService := services.NewGeoService(mapsProvider, cacheService, appLogger, services.GeoConfig{
		AverageSpeedKMH: cfg.Matching.AverageSpeedKMH,
		ProviderTimeout: cfg.Maps.Timeout,
		CacheTTL:        cfg.Matching.ETACacheTTL,
	})
	matchingService := services.NewMatchingService(driverRepo, geoService, appLogger, services.MatchingConfig{
		DefaultCandidates: cfg.Matching.DefaultCandidates,
		CandidateLimit:    cfg.Matching.CandidateLimit,
		RadiusKM:          cfg.Matching.RadiusKM,
		Concurrency:       cfg.Matching.Concurrency,
		StoreTimeout:      cfg.Matching.StoreTimeout,
	})
	notificationService := services.NewNotificationService(publisher, pushProvider, driverRepo, appLogger, cfg.Events.WriteTimeout)
	rideService := services.NewRideService(rideRepo, driverRepo, geoService, matchingService, notificationService, appLogger, services.RideConfig{
		MaxRetries:        cfg.Matching.MaxRetries,
		StoreTimeout:      cfg.Matching.StoreTimeout,
		DefaultCandidates: cfg.Matching.DefaultCandidates,
	})
	ratingService := services.NewRatingService(ratingRepo, rideRepo, driverRepo, appLogger, cfg.Matching.StoreTimeout)
	driverService := services.NewDriverService(driverRepo, appLogger, cfg.Matching.StoreTimeout)
	chatService := services.NewChatService(chatRepo, appLogger, cfg.Matching.StoreTimeout)

	// Initialize handlers
	rideHandler := handlers.NewRideHandler(rideService, ratingService)
	driverHandler := handlers.NewDriverHandler(driverService, matchingService, rideService, ratingService)
	geoHandler := handlers.NewGeoHandler(geoService)
	chatHandler := handlers.NewChatHandler(chatService)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid trusted proxies")
	}

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.MetricsMiddleware())

	authMiddleware := middleware.AuthRequired(cfg.Security.JWTSecret, cfg.Security.JWTIssuer)

	// API routes
	v1 := router.Group("/api/v1")
	{
		routes.SetupRideRoutes(v1, rideHandler, authMiddleware)
		routes.SetupDriverRoutes(v1, driverHandler, geoHandler, authMiddleware)
		routes.SetupChatRoutes(v1, chatHandler, authMiddleware)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := mongoDB.Ping(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": cfg.App.Version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:     router,
		ReadTimeout: cfg.App.ReadTimeout,
		IdleTimeout: cfg.App.IdleTimeout,
	}

	go func() {
		appLogger.Infof("Starting %s on %s", cfg.App.Name, server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
}

// newMapsProvider returns nil when no directions provider is configured.
func newMapsProvider(cfg *config.MapsConfig) (maps.MapsProvider, error) {
	switch cfg.Provider {
	case "google":
		return maps.NewGoogleMapsProvider(cfg.GoogleMaps.APIKey, cfg.GoogleMaps.RateLimit)
	case "mapbox":
		return maps.NewMapboxProvider(cfg.Mapbox.AccessToken, cfg.Mapbox.BaseURL), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown maps provider %q", cfg.Provider)
	}
}
