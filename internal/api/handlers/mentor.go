package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"careergpt-api/internal/api/middleware"
	"careergpt-api/internal/config"
	"careergpt-api/internal/llm"
	"careergpt-api/internal/logging"
	"careergpt-api/pkg/models"
	"careergpt-api/pkg/utils"
)

// ExplainOfflineFallback is returned with a 200 when the mentor
// explanation cannot be generated. The frontend renders it inline, so
// the endpoint never surfaces a hard failure.
const ExplainOfflineFallback = "The AI Mentor is temporarily offline. Please try again in a moment."

// ExplainTaskHandler handles POST /api/v1/explain-task. Explanations are
// cached by topic+description so repeat lookups skip the generation call.
func ExplainTaskHandler(cfg *config.Config, llmManager *llm.Manager, cache *utils.RedisClient) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := c.Get("request_id").(string)
		logger := logging.LogWithRequestID(requestID)

		var req models.ExplainRequest
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

		ctx := c.Request().Context()

		if cache != nil {
			if explanation := cache.GetExplanation(ctx, req.Topic, req.Description); explanation != "" {
				return c.JSON(http.StatusOK, models.ExplainResponse{Explanation: explanation})
			}
		}

		explanation, err := llmManager.ExplainTopic(ctx, req.Topic, req.Description)
		if err != nil {
			logger.Warn("Topic explanation failed, serving fallback", map[string]interface{}{
				"topic": req.Topic,
				"error": err.Error(),
			})
			return c.JSON(http.StatusOK, models.ExplainResponse{Explanation: ExplainOfflineFallback})
		}

		if cache != nil {
			cache.SetExplanation(ctx, req.Topic, req.Description, explanation)
		}

		return c.JSON(http.StatusOK, models.ExplainResponse{Explanation: explanation})
	}
}

// MockInterviewHandler handles POST /api/v1/mock-interview: one
// interviewer turn given the target role and the conversation so far.
func MockInterviewHandler(cfg *config.Config, llmManager *llm.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID, _ := c.Get("request_id").(string)
		logger := logging.LogWithRequestID(requestID)
		identity := middleware.CallerIdentity(c)

		var req models.InterviewRequest
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

		question, err := llmManager.InterviewTurn(c.Request().Context(), req.TargetRole, req.LastAnswer, req.History)
		if err != nil {
			logger.Error("Interview turn failed", map[string]interface{}{
				"user_id":     identity.UID,
				"target_role": req.TargetRole,
				"error":       err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "generation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, models.InterviewResponse{Question: question})
	}
}
