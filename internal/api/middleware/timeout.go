package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// aiPaths are the endpoints whose handler blocks on a generation round
// trip and therefore gets the long timeout.
var aiPaths = []string{"/analyze", "/explain-task", "/mock-interview"}

// SelectiveTimeoutConfig bounds request contexts: generation-backed
// endpoints get aiTimeout, everything else gets the default.
func SelectiveTimeoutConfig(defaultTimeout, aiTimeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			timeout := defaultTimeout
			path := c.Request().URL.Path
			for _, aiPath := range aiPaths {
				if strings.HasSuffix(path, aiPath) {
					timeout = aiTimeout
					break
				}
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
