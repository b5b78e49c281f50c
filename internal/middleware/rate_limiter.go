package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imageshare/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// RateLimiter caps requests per client IP within cfg.RateLimitDuration.
// It is a no-op without redis or with a non-positive limit, and it lets
// requests through when redis errors.
func RateLimiter(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil || cfg == nil || cfg.RateLimitRequests <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("WARN: Rate limiter failed to count request: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			// first request of the window starts the clock
			if err := redisClient.Expire(ctx, key, cfg.RateLimitDuration).Err(); err != nil {
				log.Printf("WARN: Rate limiter failed to set window: %v", err)
			}
		}

		limit := int64(cfg.RateLimitRequests)
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		if count > limit {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": ttl.Seconds(),
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(limit-count, 10))
		c.Next()
	}
}
