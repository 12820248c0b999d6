package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/richxcame/ride-loyalty/internal/loyalty"
	"github.com/richxcame/ride-loyalty/pkg/common"
	"github.com/richxcame/ride-loyalty/pkg/config"
	"github.com/richxcame/ride-loyalty/pkg/database"
	"github.com/richxcame/ride-loyalty/pkg/eventbus"
	"github.com/richxcame/ride-loyalty/pkg/health"
	"github.com/richxcame/ride-loyalty/pkg/logger"
	"github.com/richxcame/ride-loyalty/pkg/middleware"
	"github.com/richxcame/ride-loyalty/pkg/redis"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load("loyalty")
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Document store
	db, err := database.NewMongoDB(&cfg.Mongo)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	// Redis rider cache
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// Message bus
	bus, err := eventbus.New(cfg.NATS.URL, eventbus.Options{
		StreamName: cfg.NATS.StreamName,
		MaxDeliver: cfg.NATS.MaxDeliver,
		AckWait:    time.Duration(cfg.NATS.AckWait) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer bus.Close()
	logger.Info("Connected to NATS", zap.String("stream", cfg.NATS.StreamName))

	// Wire the loyalty domain
	repo := loyalty.NewRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to create indexes", zap.Error(err))
	}

	cache := loyalty.NewRiderCache(redisClient)
	cacheTTL := time.Duration(cfg.Redis.CacheTTL) * time.Second
	service := loyalty.NewService(repo, cache, cacheTTL)

	eventHandler := loyalty.NewEventHandler(service)
	if err := eventHandler.RegisterSubscriptions(ctx, bus); err != nil {
		logger.Fatal("Failed to register bus subscriptions", zap.Error(err))
	}

	handler := loyalty.NewHandler(service)

	// Read API
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.Recovery())
	router.Use(middleware.SecurityHeaders())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", health.Handler(cfg.Server.ServiceName, version,
		health.MongoChecker(db),
		health.RedisChecker(redisClient.Client),
		health.NATSChecker(bus.Conn()),
	))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requestTimeout := timeout.New(
		timeout.WithTimeout(time.Duration(cfg.Server.RequestTimeout)*time.Second),
		timeout.WithHandler(func(c *gin.Context) { c.Next() }),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusRequestTimeout, "request timed out")
		}),
	)

	api := router.Group("/", requestTimeout)
	{
		api.GET("/loyalty/:rider_id", handler.GetLoyaltyInfo)
		api.GET("/nbr_rides/:rider_id", handler.GetRideCount)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Loyalty service starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}
