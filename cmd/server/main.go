// Package main runs the quiz game server: HTTP API for session management
// plus the WebSocket game loop, with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quizhall/backend/config"
	"github.com/quizhall/backend/internal/games"
	"github.com/quizhall/backend/internal/middleware"
	"github.com/quizhall/backend/internal/realtime"
	"github.com/quizhall/backend/internal/sessions"
	"github.com/quizhall/backend/internal/store"
	"github.com/quizhall/backend/internal/token"
	"github.com/quizhall/backend/internal/worker"
	"github.com/quizhall/backend/pkg/database"
	"github.com/quizhall/backend/pkg/redis"
	"github.com/quizhall/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	codec, err := token.NewCodec(cfg.Game.TokenSalt)
	if err != nil {
		logger.Fatal("token codec", zap.Error(err))
	}

	catalogue := games.Catalogue()
	gameStore := store.New(pool, codec, logger)

	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	dispatcher := realtime.NewDispatcher(gameStore, catalogue, hub, logger)

	sessionHandler := sessions.NewHandler(gameStore, catalogue, hub, cfg.Game, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	sessionHandler.RegisterRoutes(router, realtime.ServeWs(hub, dispatcher, logger))

	// Unpacked package media (jeopardy images, audio, video).
	router.Static("/media", cfg.Game.MediaRoot)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background sweep of expired sessions. The standalone worker binary does
	// the same job for multi-instance deployments.
	cleanup := worker.NewCleanup(gameStore, cfg.Game.MediaRoot, cfg.Game.CleanupInterval, logger)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go cleanup.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
