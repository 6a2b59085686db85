package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"careergpt-api/internal/config"
	"careergpt-api/internal/logging"
)

// RedisClient wraps the Redis client with explanation caching for the AI
// mentor. A cache hit saves a full generation round trip for topics that
// many users request verbatim from the roadmap grid.
type RedisClient struct {
	client *redis.Client
	config *config.Config
	logger logging.Logger
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(cfg *config.Config) *RedisClient {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		// Fallback to default configuration
		opts = &redis.Options{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		}
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return &RedisClient{
		client: redis.NewClient(opts),
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// Ping tests the Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// GetExplanation returns a cached mentor explanation for the topic, or an
// empty string on miss. Redis being unreachable is treated as a miss so the
// caller falls through to the provider.
func (r *RedisClient) GetExplanation(ctx context.Context, topic, description string) string {
	value, err := r.client.Get(ctx, r.explanationKey(topic, description)).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("Explanation cache lookup failed", map[string]interface{}{
				"topic": topic,
				"error": err.Error(),
			})
		}
		return ""
	}
	return value
}

// SetExplanation stores a mentor explanation with the configured TTL.
// Failures are logged and swallowed; caching is best effort.
func (r *RedisClient) SetExplanation(ctx context.Context, topic, description, explanation string) {
	ttl := r.config.Redis.ExplanationTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	if err := r.client.Set(ctx, r.explanationKey(topic, description), explanation, ttl).Err(); err != nil {
		r.logger.Warn("Failed to cache explanation", map[string]interface{}{
			"topic": topic,
			"error": err.Error(),
		})
	}
}

// explanationKey hashes the normalized topic and description so arbitrary
// caller text never becomes a raw redis key.
func (r *RedisClient) explanationKey(topic, description string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(topic)) + "\x00" + strings.ToLower(strings.TrimSpace(description))))
	return "mentor:explanation:" + hex.EncodeToString(sum[:])
}
