package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/dto"
)

const rateLimitWindow = time.Minute

// RateLimiter is a fixed-window per-IP limiter backed by redis.
type RateLimiter struct {
	client    *redis.Client
	perMinute int
	log       *zap.Logger
}

// NewRateLimiter creates a limiter allowing perMinute requests per IP.
func NewRateLimiter(client *redis.Client, perMinute int, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client:    client,
		perMinute: perMinute,
		log:       log,
	}
}

// Middleware returns the gin middleware enforcing the limit.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "ratelimit:" + c.ClientIP()

		count, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			// Redis being down should not take the API with it.
			l.log.Warn("Rate limit check failed, allowing request", zap.Error(err))
			c.Next()
			return
		}

		if count == 1 {
			l.client.Expire(ctx, key, rateLimitWindow)
		}

		if count > int64(l.perMinute) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: "rate_limited"})
			return
		}

		c.Next()
	}
}
