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

// ListRecordsHandler handles GET /api/v1/learning-records: the caller's
// saved analyses, newest first.
func ListRecordsHandler(cfg *config.Config, gateway *storage.Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := c.Get("request_id").(string)
		logger := logging.LogWithRequestID(requestID)
		identity := middleware.CallerIdentity(c)

		if !gateway.Available() {
			return c.JSON(http.StatusOK, []*storage.Analysis{})
		}

		rows, err := gateway.Analyses.ListByUser(c.Request().Context(), identity.UID)
		if err != nil {
			logger.Error("Failed to list learning records", map[string]interface{}{
				"user_id": identity.UID,
				"error":   err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "persistence_failed",
				Message:   "Failed to fetch learning records",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, rows)
	}
}

// DeleteRecordHandler handles DELETE /api/v1/delete-record/:record_id.
// Removes the analysis and its progress rows. Deleting a record that does
// not exist, or that belongs to another user, succeeds without effect.
func DeleteRecordHandler(cfg *config.Config, gateway *storage.Gateway) echo.HandlerFunc {
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

		recordID, err := uuid.Parse(c.Param("record_id"))
		if err != nil {
			return c.JSON(http.StatusOK, models.DeleteResponse{Status: "success"})
		}

		if err := gateway.Analyses.DeleteByIDAndUser(c.Request().Context(), recordID, identity.UID); err != nil {
			logger.Error("Failed to delete learning record", map[string]interface{}{
				"user_id":   identity.UID,
				"record_id": recordID.String(),
				"error":     err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "persistence_failed",
				Message:   "Failed to delete record",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Learning record deleted", map[string]interface{}{
			"user_id":   identity.UID,
			"record_id": recordID.String(),
		})

		return c.JSON(http.StatusOK, models.DeleteResponse{Status: "success"})
	}
}
