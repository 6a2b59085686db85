package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"careergpt-api/internal/api/middleware"
	"careergpt-api/internal/config"
	"careergpt-api/internal/logging"
	"careergpt-api/internal/storage"
	"careergpt-api/pkg/models"
)

// UpdateProgressHandler handles POST /api/v1/update-progress. Writes are
// upserts keyed on (user_id, analysis_id, day_label, duration_type), so
// repeating a request converges on the same row.
func UpdateProgressHandler(cfg *config.Config, gateway *storage.Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := c.Get("request_id").(string)
		logger := logging.LogWithRequestID(requestID)
		identity := middleware.CallerIdentity(c)

		if !gateway.Available() {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "persistence_unavailable",
				Message:   "Persistence is not configured",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		var req models.ProgressUpdateRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}
		if err := validate.Struct(&req); err != nil {
			return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		analysisID, err := uuid.Parse(req.AnalysisID)
		if err != nil {
			return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   "analysis_id must be a valid UUID",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		durationType := req.DurationType
		if durationType == "" {
			durationType = "30"
		}
		skillScore := 5
		if req.SkillScore != nil {
			skillScore = *req.SkillScore
		}

		row := &storage.RoadmapProgress{
			UserID:       identity.UID,
			AnalysisID:   analysisID,
			DayLabel:     req.DayLabel,
			DurationType: durationType,
			IsCompleted:  req.IsCompleted,
			SkillScore:   skillScore,
		}

		stored, err := gateway.Progress.Upsert(c.Request().Context(), row)
		if err != nil {
			logger.Error("Failed to upsert roadmap progress", map[string]interface{}{
				"user_id":     identity.UID,
				"analysis_id": req.AnalysisID,
				"day_label":   req.DayLabel,
				"error":       err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "persistence_failed",
				Message:   "Failed to update progress",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, models.ProgressUpdateResponse{
			Status: "success",
			Data:   stored,
		})
	}
}

// GetProgressHandler handles GET /api/v1/get-progress/:analysis_id.
// Returns an empty list rather than an error when persistence is not
// configured or the id cannot match anything.
func GetProgressHandler(cfg *config.Config, gateway *storage.Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := c.Get("request_id").(string)
		logger := logging.LogWithRequestID(requestID)
		identity := middleware.CallerIdentity(c)

		empty := []*storage.RoadmapProgress{}
		if !gateway.Available() {
			return c.JSON(http.StatusOK, empty)
		}

		analysisID, err := uuid.Parse(c.Param("analysis_id"))
		if err != nil {
			return c.JSON(http.StatusOK, empty)
		}

		rows, err := gateway.Progress.ListByAnalysisAndUser(c.Request().Context(), analysisID, identity.UID)
		if err != nil {
			logger.Error("Failed to list roadmap progress", map[string]interface{}{
				"user_id":     identity.UID,
				"analysis_id": analysisID.String(),
				"error":       err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "persistence_failed",
				Message:   "Failed to fetch progress",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, rows)
	}
}
