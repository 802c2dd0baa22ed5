package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/realtyhub/backend/internal/application/usecase/ratelimit"
	"github.com/realtyhub/backend/internal/integration/entrypoint/dto"
)

const (
	headerRetryAfter         = "Retry-After"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
)

// IdentityFunc returns the actor kind and id a request is counted against.
type IdentityFunc func(c *gin.Context) (kind, id string)

// ByClientIP counts requests per client IP.
func ByClientIP(c *gin.Context) (string, string) {
	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return ratelimit.ActorIP, ip
}

// ByUser counts requests per authenticated user and falls back to the client IP.
// It must run after Authenticate.
func ByUser(c *gin.Context) (string, string) {
	if caller, ok := Caller(c); ok {
		return ratelimit.ActorUser, caller.UserID.String()
	}
	return ByClientIP(c)
}

// RateLimit consumes one unit of policy for every request before the handler runs.
// Rejected requests get 429 with Retry-After and never reach the handler.
func RateLimit(limiter *ratelimit.Limiter, policy ratelimit.Policy, identity IdentityFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, id := identity(c)
		decision := limiter.Consume(c.Request.Context(), policy, kind, id)

		c.Header(headerRateLimitReset, strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			c.Header(headerRetryAfter, strconv.Itoa(decision.RetryAfterSeconds(limiter.Now())))
			c.Header(headerRateLimitRemaining, "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "Too many requests",
			})
			return
		}

		c.Header(headerRateLimitRemaining, strconv.Itoa(decision.Remaining))
		c.Next()
	}
}
