package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
	"github.com/lk2023060901/media-path/internal/pkg/redis"
	"github.com/lk2023060901/media-path/internal/pkg/response"
	"github.com/lk2023060901/media-path/internal/pkg/validator"
)

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	// 时间窗口内允许的最大请求数
	MaxRequests int `mapstructure:"max_requests"`
	// 时间窗口（秒）
	WindowSeconds int `mapstructure:"window_seconds"`
	// 限流策略：user, ip（默认）
	Strategy string `mapstructure:"strategy"`
	// key 前缀，区分不同端点的计数
	Scope string `mapstructure:"scope"`
}

// slidingWindowScript 原子性滑动窗口限流
const slidingWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local current = redis.call('ZCARD', key)

if current < limit then
	redis.call('ZADD', key, now, member)
	redis.call('EXPIRE', key, window)
	return {1, limit - current - 1, now + window}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')[2]
return {0, 0, tonumber(oldest) + window}
`

// RateLimiter 基于 Redis 的滑动窗口限流中间件
func RateLimiter(redisClient *redis.Client, cfg RateLimiterConfig, log *logger.Logger) gin.HandlerFunc {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = 60
	}
	if cfg.Scope == "" {
		cfg.Scope = "api"
	}

	return func(c *gin.Context) {
		key := buildRateLimitKey(c, cfg)

		allowed, remaining, resetTime, err := checkRateLimit(c.Request.Context(), redisClient, key, cfg)
		if err != nil {
			// 限流器故障时，降级允许请求通过
			log.Error("rate limiter error", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(cfg.WindowSeconds))
			response.ErrorWithCode(c, apperrors.ErrTooManyRequests,
				fmt.Sprintf("please try again in %d seconds", cfg.WindowSeconds))
			c.Abort()
			return
		}

		c.Next()
	}
}

// buildRateLimitKey 构建限流 key
func buildRateLimitKey(c *gin.Context, cfg RateLimiterConfig) string {
	prefix := "rate_limit:" + cfg.Scope

	if cfg.Strategy == "user" {
		if account := GetAccount(c); account.IsAuthenticated() {
			return fmt.Sprintf("%s:user:%s", prefix, account.UserID)
		}
	}
	// 未认证用户回退到 IP 限流
	return fmt.Sprintf("%s:ip:%s", prefix, validator.CanonicalIP(c.ClientIP(), "unknown"))
}

func checkRateLimit(ctx context.Context, redisClient *redis.Client, key string, cfg RateLimiterConfig) (allowed bool, remaining int, resetTime int64, err error) {
	now := time.Now().Unix()

	result, err := redisClient.Eval(ctx, slidingWindowScript, []string{key},
		now, cfg.WindowSeconds, cfg.MaxRequests, uuid.NewString())
	if err != nil {
		return false, 0, 0, err
	}

	values, ok := result.([]any)
	if !ok || len(values) != 3 {
		return false, 0, 0, fmt.Errorf("invalid rate limit result")
	}

	allowedInt, _ := values[0].(int64)
	remainingInt, _ := values[1].(int64)
	resetTimeInt, _ := values[2].(int64)

	return allowedInt == 1, int(remainingInt), resetTimeInt, nil
}
