package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careergpt-api/internal/api/routes"
	"careergpt-api/internal/auth"
	"careergpt-api/internal/config"
	"careergpt-api/internal/llm"
	"careergpt-api/internal/logging"
	"careergpt-api/internal/storage"
	"careergpt-api/pkg/utils"

	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting CareerGPT API")

	// Initialize token verifier
	verifier, err := auth.NewVerifier(cfg)
	if err != nil {
		logger.Error("Failed to initialize token verifier", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	// Initialize LLM manager. A provider that cannot start degrades the AI
	// endpoints instead of blocking the whole service.
	llmManager := llm.NewManager(cfg)
	if err := llmManager.Start(); err != nil {
		logger.Warn("Generation provider unavailable, AI endpoints will degrade", map[string]interface{}{"error": err.Error()})
	}

	// Initialize storage gateway. A nil gateway means persistence is not
	// configured and the service runs in degraded mode.
	gateway, err := storage.NewGateway(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	if gateway == nil {
		logger.Warn("Persistence not configured, running in degraded mode")
	}

	// Optional explanation cache
	var cache *utils.RedisClient
	if cfg.Redis.Enabled {
		cache = utils.NewRedisClient(cfg)
		if cache != nil {
			defer cache.Close()
		}
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Setup routes
	routes.SetupRoutes(e, cfg, verifier, llmManager, gateway, cache)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Stop LLM manager
		if err := llmManager.Stop(); err != nil {
			logger.Error("Error stopping LLM manager", map[string]interface{}{"error": err.Error()})
		}

		// Close database connections
		if err := gateway.Close(); err != nil {
			logger.Error("Error closing database", map[string]interface{}{"error": err.Error()})
		}

		// Shutdown Echo server
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("Server shutdown complete")
	}()

	// Start server
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{"address": address})

	if err := e.Start(address); err != nil {
		logger.Error("Server failed to start", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}
