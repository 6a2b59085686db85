package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"careergpt-api/internal/api/middleware"
	"careergpt-api/internal/config"
	"careergpt-api/internal/llm"
	"careergpt-api/internal/logging"
	"careergpt-api/internal/storage"
	"careergpt-api/pkg/models"
	"careergpt-api/pkg/utils"
)

var validate = validator.New()

// AnalyzeHandler handles POST /api/v1/analyze: one structured generation
// call, then the analysis insert and roadmap seeding in a single
// transaction, so a seeding failure never leaves an orphaned analysis.
func AnalyzeHandler(cfg *config.Config, llmManager *llm.Manager, gateway *storage.Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		startTime := time.Now()
		requestID, _ := c.Get("request_id").(string)
		logger := logging.LogWithRequestID(requestID)
		identity := middleware.CallerIdentity(c)

		var req models.AnalyzeRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to bind analyze request", map[string]interface{}{"error": err.Error()})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		if err := validate.Struct(&req); err != nil {
			logger.Error("Analyze request validation failed", map[string]interface{}{"error": err.Error()})
			return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Processing analyze request", map[string]interface{}{
			"user_id":     identity.UID,
			"target_role": req.TargetRole,
		})

		ctx := c.Request().Context()
		report, err := llmManager.AnalyzeResume(ctx, req.ResumeText, req.TargetRole, req.KnownSkills)
		if err != nil {
			logger.Error("Resume analysis failed", map[string]interface{}{
				"user_id": identity.UID,
				"error":   err.Error(),
			})

			status := http.StatusServiceUnavailable
			errorCode := "generation_failed"
			if utils.IsRateLimitError(err) {
				status = http.StatusTooManyRequests
				errorCode = "rate_limited"
			}
			return c.JSON(status, models.ErrorResponse{
				Error:     errorCode,
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		report.Normalize()
		report.TargetRole = req.TargetRole

		if gateway.Available() {
			var row *storage.Analysis
			err := gateway.Transaction(func(tx *gorm.DB) error {
				var txErr error
				row, txErr = storage.NewAnalysisRow(identity.UID, req.TargetRole, report)
				if txErr != nil {
					return txErr
				}
				if row, txErr = gateway.Analyses.Insert(ctx, tx, row); txErr != nil {
					return txErr
				}
				return gateway.Progress.BulkUpsert(ctx, tx, storage.SeedRows(identity.UID, row.ID, report))
			})
			if err != nil {
				logger.Error("Failed to persist analysis", map[string]interface{}{
					"user_id": identity.UID,
					"error":   err.Error(),
				})
				return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
					Error:     "persistence_failed",
					Message:   "Database sync failed",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}
			report.ID = row.ID.String()
		}

		logger.Info("Analyze request completed", map[string]interface{}{
			"user_id":         identity.UID,
			"analysis_id":     report.ID,
			"readiness_score": report.ReadinessScore,
			"processing_time": time.Since(startTime),
		})

		return c.JSON(http.StatusOK, report)
	}
}
