package utils

import (
	"fmt"
	"net/http"
	"strings"
)

// CustomError represents a custom application error
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Common error constructors
func NewBadRequestError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

func NewInternalServerError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: message,
	}
}

func NewValidationError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: "Validation failed",
		Detail:  detail,
	}
}

// NewUnauthenticatedError is returned when the bearer credential is missing,
// malformed, expired or fails verification
func NewUnauthenticatedError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusUnauthorized,
		Message: "Invalid or missing credential",
		Detail:  detail,
	}
}

// NewRateLimitedError maps provider throttling to 429
func NewRateLimitedError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusTooManyRequests,
		Message: "Generation service rate limited",
		Detail:  detail,
	}
}

// NewGenerationError covers provider failures other than throttling
func NewGenerationError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusServiceUnavailable,
		Message: "Generation service failed",
		Detail:  detail,
	}
}

// NewPersistenceError maps storage failures to a generic 500 so internal
// database error text never reaches the caller
func NewPersistenceError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: message,
	}
}

// rateLimitMarkers are the substrings Gemini error text carries when the
// project is being throttled.
var rateLimitMarkers = []string{"429", "RESOURCE_EXHAUSTED", "rate limit"}

// IsRateLimitError reports whether a provider error indicates throttling
// rather than a general outage.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(text, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
