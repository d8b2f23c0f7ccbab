// Package main runs the background maintenance worker (expired-session
// cleanup) as a standalone process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quizhall/backend/config"
	"github.com/quizhall/backend/internal/store"
	"github.com/quizhall/backend/internal/token"
	"github.com/quizhall/backend/internal/worker"
	"github.com/quizhall/backend/pkg/database"
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

	codec, err := token.NewCodec(cfg.Game.TokenSalt)
	if err != nil {
		logger.Fatal("token codec", zap.Error(err))
	}
	gameStore := store.New(pool, codec, logger)
	cleanup := worker.NewCleanup(gameStore, cfg.Game.MediaRoot, cfg.Game.CleanupInterval, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go cleanup.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
