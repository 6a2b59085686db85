package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"careergpt-api/internal/llm"
	"careergpt-api/internal/logging"
	"careergpt-api/internal/storage"
	"careergpt-api/pkg/models"
	"careergpt-api/pkg/utils"
)

var startTime = time.Now()

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	requestID := utils.GenerateRequestID()
	logger := logging.GetGlobalLogger()

	logger.Debug("Health check requested", map[string]interface{}{"request_id": requestID})

	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	}

	return c.JSON(http.StatusOK, response)
}

// ReadinessHandler reports whether the service can actually serve
// traffic: the generation provider must be healthy, and the database is
// reported as degraded rather than failing readiness outright.
func ReadinessHandler(llmManager *llm.Manager, gateway *storage.Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger()

		logger.Debug("Readiness check requested", map[string]interface{}{"request_id": requestID})

		checks := map[string]string{
			"api": "ok",
		}
		status := "ready"
		code := http.StatusOK

		if llmManager != nil && llmManager.IsHealthy() {
			checks["llm"] = "ok"
		} else {
			checks["llm"] = "unhealthy"
			status = "not_ready"
			code = http.StatusServiceUnavailable
		}

		if gateway.Available() {
			checks["database"] = "ok"
		} else {
			checks["database"] = "degraded"
		}

		response := models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Uptime:    time.Since(startTime),
			Checks:    checks,
		}

		return c.JSON(code, response)
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	requestID := utils.GenerateRequestID()
	logger := logging.GetGlobalLogger()

	logger.Debug("Liveness check requested", map[string]interface{}{"request_id": requestID})

	response := models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(startTime),
	}

	return c.JSON(http.StatusOK, response)
}

// StatusHandler provides detailed service status
func StatusHandler(llmManager *llm.Manager, gateway *storage.Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger()

		logger.Debug("Status check requested", map[string]interface{}{"request_id": requestID})

		checks := map[string]string{
			"api": "operational",
		}
		if llmManager != nil {
			checks["llm_provider"] = llmManager.GetProviderName()
			if llmManager.IsHealthy() {
				checks["llm"] = "operational"
			} else {
				checks["llm"] = "unhealthy"
			}
		}
		if gateway.Available() {
			checks["database"] = "operational"
		} else {
			checks["database"] = "degraded"
		}

		response := models.HealthResponse{
			Status:    "operational",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Uptime:    time.Since(startTime),
			Checks:    checks,
		}

		return c.JSON(http.StatusOK, response)
	}
}
