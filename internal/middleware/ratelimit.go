package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/edusmart-import-api/pkg/errors"
	"github.com/noah-isme/edusmart-import-api/pkg/response"
)

const rateLimitPrefix = "edusmart:ratelimit"

// RateLimit throttles a route group per client IP. formatted uses the
// "<count>-<S|M|H|D>" form. Counters live in redis when a client is given and
// in process memory otherwise. An empty rate disables the middleware.
func RateLimit(formatted string, client *redis.Client, logger *zap.Logger) (gin.HandlerFunc, error) {
	if formatted == "" {
		return func(c *gin.Context) { c.Next() }, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit %q: %w", formatted, err)
	}

	var store limiter.Store
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			logger.Warn("redis rate limit store unavailable, falling back to memory", zap.Error(err))
			store = nil
		}
	}
	if store == nil {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}

	instance := limiter.New(store, rate)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.Header("Retry-After", strconv.FormatInt(int64(rate.Period.Seconds()), 10))
			response.Error(c, appErrors.ErrRateLimited)
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			logger.Error("rate limiter failed", zap.Error(err))
			response.Error(c, err)
		}),
	), nil
}
