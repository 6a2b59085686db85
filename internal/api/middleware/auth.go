package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"careergpt-api/internal/auth"
	"careergpt-api/internal/logging"
	"careergpt-api/pkg/models"
)

// identityContextKey is where the verified caller identity lives on the
// echo context.
const identityContextKey = "caller_identity"

// TokenVerifier validates a bearer credential and yields the caller
// identity. Satisfied by *auth.Verifier; tests substitute their own.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*auth.Identity, error)
}

// RequireAuth verifies the bearer token on every request before any
// business logic runs. Verification failure is terminal: 401, no retry.
func RequireAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			logger := logging.GetGlobalLogger()
			requestID, _ := c.Get("request_id").(string)

			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:     "unauthenticated",
					Message:   "Missing bearer token",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}

			identity, err := verifier.VerifyIDToken(c.Request().Context(), token)
			if err != nil {
				logger.Warn("Token verification failed", map[string]interface{}{
					"request_id": requestID,
					"error":      err.Error(),
				})
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:     "unauthenticated",
					Message:   "Invalid or expired token",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}

			c.Set(identityContextKey, identity)
			return next(c)
		}
	}
}

// CallerIdentity returns the verified identity set by RequireAuth, or nil
// when the request never passed through it.
func CallerIdentity(c echo.Context) *auth.Identity {
	identity, _ := c.Get(identityContextKey).(*auth.Identity)
	return identity
}

// bearerToken extracts the credential from an Authorization header
func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
