package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/pitchside/scoutline/internal/analytics"
	"github.com/pitchside/scoutline/internal/api/handlers"
	"github.com/pitchside/scoutline/internal/providers"
	"github.com/pitchside/scoutline/internal/recommender"
	"github.com/pitchside/scoutline/internal/websocket"
	"github.com/pitchside/scoutline/pkg/cache"
	"github.com/pitchside/scoutline/pkg/config"
	"github.com/pitchside/scoutline/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	logger.WithService("scoutline").WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
	}).Info("Starting player analytics service")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Redis is optional: without it the provider just skips response caching.
	var cacheService *cache.Service
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithService("scoutline").Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.WithService("scoutline").Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		cacheService = cache.NewService(redisClient, structuredLogger)
	}

	processor := analytics.NewProcessor(structuredLogger)
	provider := providers.NewFootballProvider(cfg, cacheService, structuredLogger)
	engine := recommender.NewEngine(structuredLogger)

	// Training notifications fan out to websocket clients.
	hub := websocket.NewTrainingHub(engine.Subscribe(), structuredLogger)
	go hub.Run()

	// Optional scheduled data refresh.
	var scheduler *cron.Cron
	if cfg.EnableBackgroundJobs && cfg.DataRefreshSchedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.DataRefreshSchedule, func() {
			refreshData(cfg, provider, processor, engine, structuredLogger)
		})
		if err != nil {
			logger.WithService("scoutline").Fatalf("Invalid refresh schedule: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	playerHandler := handlers.NewPlayerHandler(engine, structuredLogger)
	recommendationHandler := handlers.NewRecommendationHandler(engine, processor, provider, cfg, structuredLogger)
	healthHandler := handlers.NewHealthHandler(engine, provider, cacheService, structuredLogger)

	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/players", playerHandler.ListPlayers)
		v1.GET("/players/top", playerHandler.TopPlayers)
		v1.GET("/players/:id", playerHandler.GetPlayer)
		v1.GET("/recommendations/similar/:id", recommendationHandler.SimilarPlayers)
		v1.POST("/recommendations/criteria", recommendationHandler.ByCriteria)
		v1.POST("/data/refresh", recommendationHandler.RefreshData)
		v1.GET("/ws", hub.ServeWS)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithService("scoutline").Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.WithService("scoutline").Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithService("scoutline").Errorf("Forced shutdown: %v", err)
	}
}

// refreshData is the scheduled variant of the refresh endpoint: fetch, load,
// retrain.
func refreshData(
	cfg *config.Config,
	provider *providers.FootballProvider,
	processor *analytics.Processor,
	engine *recommender.Engine,
	log *logrus.Logger,
) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	entries, err := provider.FetchPlayers(ctx, cfg.DefaultLeague, cfg.DefaultSeason)
	if err != nil {
		log.WithError(err).Error("Scheduled player fetch failed")
		return
	}

	table, err := processor.ProcessPlayers(entries)
	if err != nil {
		log.WithError(err).Error("Scheduled player processing failed")
		return
	}

	engine.LoadTable(table)
	if err := engine.Train(ctx); err != nil {
		log.WithError(err).Error("Scheduled retrain failed")
	}
}
