package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/alchemorsel-ai-recipe/backend/config"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/app"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/database"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/logging"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/middleware"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/server"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/session"
)

func main() {
	// .env is optional; real environment variables always win
	loaded, dotenvErr := config.LoadDotEnv()

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	if dotenvErr != nil {
		logger.WithError(dotenvErr).Warn("ignoring unreadable .env file")
	}
	if len(loaded) > 0 {
		logger.WithField("files", loaded).Debug("loaded .env files")
	}
	gin.SetMode(cfg.Environment.GinMode())

	ctx := context.Background()
	generator, err := app.NewGenerator(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create recipe generator: %v", err)
	}

	// Redis is optional; without it requests are not rate limited
	redisClient, err := database.NewRedisClient(ctx, cfg, logging.Component(logger, "redis"))
	if err != nil {
		logger.WithError(err).Warn("rate limiting disabled")
	}
	limiter := middleware.NewGenerationRateLimiter(redisClient, cfg.RateLimitPerHour, logging.Component(logger, "rate_limiter"))

	sessions := session.NewStore(cfg.SessionTTL, logging.Component(logger, "session_store"))
	srv := server.New(cfg, generator, sessions, limiter, logging.Component(logger, "server"))

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"provider":        cfg.LLMProvider,
			"model":           generator.ModelName(),
			"model_available": generator.Available(),
			"rate_limited":    limiter.Enabled(),
		}).Info("Starting server...")
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		logger.Infof("Received signal: %v", sig)
	}

	// Gracefully shutdown the server
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Server shutdown error: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logger.Info("Server stopped")
}
