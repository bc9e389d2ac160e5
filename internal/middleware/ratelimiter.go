package middleware

import (
	"fmt"
	"net/http"
	"time"

	"applicant-api-io/api/pkg/util"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ApplicantRateLimiter allows limit requests per second per client IP,
// counted in Redis so every instance shares the budget.
func ApplicantRateLimiter(client *redis.Client, limit int) gin.HandlerFunc {
	if limit <= 0 {
		limit = 5
	}
	store := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: client,
		Rate:        time.Second,
		Limit:       uint(limit),
	})

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			c.JSON(http.StatusTooManyRequests, util.Response{
				Success: false,
				Message: fmt.Sprintf("Too many requests. Try again in %s", time.Until(info.ResetTime).Round(time.Millisecond)),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}
