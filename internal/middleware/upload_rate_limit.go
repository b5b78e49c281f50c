package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UploadRateLimit caps image uploads per user and calendar day. Mount it on
// the upload submit route after Session; anonymous requests are not counted.
func UploadRateLimit(redisClient *redis.Client, perDay int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil || perDay <= 0 {
			c.Next()
			return
		}
		userID, ok := c.Get(ContextUserID)
		if !ok {
			c.Next()
			return
		}
		id, ok := userID.(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		now := time.Now()
		key := uploadLimitKey(id, now)

		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("WARN: Upload limiter unavailable: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			// counters reset at local midnight
			midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			_ = redisClient.ExpireAt(ctx, key, midnight).Err()
		}

		if count > int64(perDay) {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":               "upload_rate_limit_exceeded",
				"message":             "Too many uploads today. Please try again tomorrow.",
				"retry_after_hours":   int(ttl.Hours()),
				"max_uploads_per_day": perDay,
			})
			return
		}
		c.Next()
	}
}

func uploadLimitKey(userID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("upload_limit:%s:%s", userID, day.Format("2006-01-02"))
}
