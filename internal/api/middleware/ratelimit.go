package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"careergpt-api/internal/config"
	"careergpt-api/pkg/models"
)

// userLimiter tracks one caller's token bucket
type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// AnalyzeRateLimiter enforces a per-user budget on analysis calls so one
// caller cannot burn the whole generation quota. Keys are verified user
// ids; idle entries are evicted periodically.
type AnalyzeRateLimiter struct {
	perMinute int
	burst     int
	limiters  map[string]*userLimiter
	mu        sync.Mutex
}

// NewAnalyzeRateLimiter creates a limiter from configuration
func NewAnalyzeRateLimiter(cfg *config.Config) *AnalyzeRateLimiter {
	rl := &AnalyzeRateLimiter{
		perMinute: cfg.RateLimit.AnalyzePerMinute,
		burst:     cfg.RateLimit.AnalyzeBurst,
		limiters:  make(map[string]*userLimiter),
	}

	go rl.cleanupRoutine()

	return rl
}

// Allow checks if a request from the given user is within budget
func (rl *AnalyzeRateLimiter) Allow(userID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[userID]
	if !ok {
		entry = &userLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60.0), rl.burst),
		}
		rl.limiters[userID] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

// Middleware rejects over-budget requests with 429 before the generation
// provider is ever called
func (rl *AnalyzeRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := CallerIdentity(c)
			key := c.RealIP()
			if identity != nil {
				key = identity.UID
			}

			if !rl.Allow(key) {
				requestID, _ := c.Get("request_id").(string)
				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
					Error:     "rate_limited",
					Message:   "Too many analysis requests, slow down",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}

			return next(c)
		}
	}
}

// cleanupRoutine drops limiters idle for more than an hour
func (rl *AnalyzeRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-time.Hour)
		rl.mu.Lock()
		for key, entry := range rl.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(rl.limiters, key)
			}
		}
		rl.mu.Unlock()
	}
}
