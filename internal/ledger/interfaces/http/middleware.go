package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/tokenledger/pkg/ratelimit"
)

// RateLimitMiddleware 按操作者账户限流，匿名请求退化到按来源 IP。
// 限流器不可用时放行，避免 Redis 故障放大为接口不可用。
func RateLimitMiddleware(limiter ratelimit.Limiter, limit ratelimit.Limit, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Account-Id")
		if key == "" {
			key = c.ClientIP()
		}

		res, err := limiter.Allow(c.Request.Context(), "ledger:ratelimit:"+key, limit)
		if err != nil {
			logger.WarnContext(c.Request.Context(), "rate limit check failed", "key", key, "error", err)
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
