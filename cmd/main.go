package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rohan-134v/Streamvibe/internal/cache"
	"github.com/Rohan-134v/Streamvibe/internal/config"
	"github.com/Rohan-134v/Streamvibe/internal/handler"
	"github.com/Rohan-134v/Streamvibe/internal/hub"
	"github.com/Rohan-134v/Streamvibe/internal/idgen"
	"github.com/Rohan-134v/Streamvibe/internal/kafka"
	"github.com/Rohan-134v/Streamvibe/internal/service"
	"github.com/Rohan-134v/Streamvibe/internal/store"
	pkglog "github.com/Rohan-134v/Streamvibe/pkg/log"
	"github.com/gin-gonic/gin"
)

const serviceName = "relay-service"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	pkglog.Init(pkglog.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: serviceName})
	logger := pkglog.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting " + serviceName)

	// Initialize room store
	storeCtx, storeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	roomStore, err := store.New(storeCtx, cfg.Store)
	storeCancel()
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to initialize room store")
	}
	defer roomStore.Close()
	logger.Info().Str("driver", cfg.Store.Driver).Msg("room store ready")

	// Initialize comment cache (optional)
	var commentCache cache.CommentCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCommentCache(cfg.Redis, cfg.Cache.Prefix)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to connect to redis, comment cache disabled")
		} else {
			commentCache = redisCache
			defer redisCache.Close()
			logger.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")
		}
	}

	// Initialize Kafka producer for room events (optional)
	var kafkaProducer kafka.RoomEventProducer
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create kafka producer, room events disabled")
		} else {
			kafkaProducer = producer
			defer producer.Close()
			logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("connected to kafka")
		}
	}

	connectionIDs, err := idgen.New(cfg.IDs.Connection)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create connection id generator")
	}

	// Initialize hub and services
	wsHub := hub.NewHub(cfg.WebSocket)
	commentSvc := service.NewCommentService(roomStore, commentCache, cfg.Cache.TTL)
	relaySvc := service.NewRelayService(wsHub, roomStore, commentSvc, kafkaProducer, cfg.Store.WriteTimeout)

	// Initialize handlers
	wsHandler := handler.NewWSHandler(wsHub, relaySvc, connectionIDs)
	httpHandler := handler.NewHTTPHandler(wsHub, commentSvc)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(pkglog.GinMiddleware(logger))

	httpHandler.RegisterRoutes(router)
	wsHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg(serviceName + " listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down " + serviceName)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	// Hijacked WebSocket connections outlive server.Shutdown.
	n := wsHub.CloseAll()
	logger.Info().Int("connections", n).Msg("websocket connections closed")

	if err := relaySvc.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("pending persistence writes abandoned")
	}

	logger.Info().Msg(serviceName + " stopped")
}
