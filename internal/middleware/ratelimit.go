package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"snaplink/internal/limiter"
	"snaplink/internal/metrics"
)

// RateLimit returns a Gin middleware gating requests through the given
// limiter. keyExtractor chooses how the client identity is derived: "api-key"
// uses the X-API-Key header (falling back to IP for anonymous callers),
// anything else uses the client IP. Denials carry a Retry-After header.
func RateLimit(l *limiter.Limiter, keyExtractor string, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c, keyExtractor)

		allowed, retryAfter := l.Admit(key)
		if !allowed {
			m.Denied.Add(1)
			c.Header("Retry-After", strconv.Itoa(retrySeconds(retryAfter)))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}

		m.Admitted.Add(1)
		c.Next()
	}
}

func clientKey(c *gin.Context, extractor string) string {
	if extractor == "api-key" {
		if key := c.GetHeader("X-API-Key"); key != "" {
			return "key:" + key
		}
	}
	return "ip:" + c.ClientIP()
}

// retrySeconds rounds up so clients never retry before the window resets.
func retrySeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
