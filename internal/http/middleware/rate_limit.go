package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/ignatzorin/civic-backend/internal/interface/http/response"
	"github.com/ignatzorin/civic-backend/internal/logger"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

const limiterPrefix = "civic_limiter"

// NewLimiterStore возвращает Redis store, если задан клиент, иначе in-memory.
// Redis нужен, когда инстансов сервиса несколько.
func NewLimiterStore(client *redis.Client) (limiter.Store, error) {
	if client == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          limiterPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), nil
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: limiterPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit: не удалось создать redis store: %w", err)
	}
	return store, nil
}

// RateLimitMiddleware создаёт middleware для ограничения количества запросов.
// По умолчанию: 10 запросов в минуту с одного IP.
func RateLimitMiddleware(store limiter.Store, limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = 1 * time.Minute
	}

	instance := limiter.New(store, limiter.Rate{
		Period: period,
		Limit:  limit,
	})

	return func(c *gin.Context) {
		key := c.ClientIP()
		lctx, err := instance.Get(c.Request.Context(), key)
		if err != nil {
			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"error": err.Error(),
					"key":   key,
				}).Error("rate limit: store недоступен")
			}
			response.Error(c, apperror.New(apperror.ErrCodeInternal, "rate limiter unavailable"))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", lctx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", lctx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", lctx.Reset))

		if lctx.Reached {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Response{
				Success: false,
				Error: &response.ErrorInfo{
					Code:    "RATE_LIMITED",
					Message: "too many requests, try again later",
				},
			})
			return
		}

		c.Next()
	}
}
