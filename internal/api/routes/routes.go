package routes

import (
	"careergpt-api/internal/api/handlers"
	"careergpt-api/internal/api/middleware"
	"careergpt-api/internal/config"
	"careergpt-api/internal/llm"
	"careergpt-api/internal/storage"
	"careergpt-api/pkg/utils"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, verifier middleware.TokenVerifier, llmManager *llm.Manager, gateway *storage.Gateway, cache *utils.RedisClient) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	// Selective timeout: 30s for most endpoints, the LLM timeout for
	// generation-backed endpoints
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, cfg.LLM.Timeout))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(llmManager, gateway))
		health.GET("/live", handlers.LivenessHandler)
	}

	// Status route
	e.GET("/status", handlers.StatusHandler(llmManager, gateway))

	// API v1 routes, all behind bearer-token auth
	v1 := e.Group("/api/v1", middleware.RequireAuth(verifier))
	{
		analyzeLimiter := middleware.NewAnalyzeRateLimiter(cfg)
		v1.POST("/analyze", handlers.AnalyzeHandler(cfg, llmManager, gateway), analyzeLimiter.Middleware())

		// Roadmap progress routes
		v1.POST("/update-progress", handlers.UpdateProgressHandler(cfg, gateway))
		v1.GET("/get-progress/:analysis_id", handlers.GetProgressHandler(cfg, gateway))

		// Saved analysis routes
		v1.GET("/learning-records", handlers.ListRecordsHandler(cfg, gateway))
		v1.DELETE("/delete-record/:record_id", handlers.DeleteRecordHandler(cfg, gateway))

		// AI mentor routes
		v1.POST("/explain-task", handlers.ExplainTaskHandler(cfg, llmManager, cache))
		v1.POST("/mock-interview", handlers.MockInterviewHandler(cfg, llmManager))
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"service": "CareerGPT API",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
