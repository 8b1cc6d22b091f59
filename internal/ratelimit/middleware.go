package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Middleware returns a gin handler enforcing the rate limit policy.
// Requests without a credential pass through untouched; store failures
// are logged and the request admitted, so a struggling Redis never
// turns into an outage of the gateway itself.
func Middleware(store Store, cfg Config) gin.HandlerFunc {
	if !cfg.Enabled || store == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		identity := IdentityFromRequest(c.Request)
		if identity == "" {
			c.Next()
			return
		}

		result, errTake := store.Take(c.Request.Context(), identity, cfg, time.Now().UTC())
		if errTake != nil {
			log.WithError(errTake).Warn("rate limit: store unavailable, admitting request")
			c.Next()
			return
		}

		writeHeaders(c, result)
		if !result.Allowed {
			retryAfter := retryAfterSeconds(result.RetryAfter)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Too Many Requests",
				"message":    "API key quota exceeded, retry later",
				"retryAfter": retryAfter,
			})
			return
		}
		c.Next()
	}
}

// writeHeaders reports the quota state on every decided request.
func writeHeaders(c *gin.Context, result Result) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))
}

// retryAfterSeconds rounds the cooldown up to whole seconds, minimum 1.
func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	return int(math.Ceil(d.Seconds()))
}
