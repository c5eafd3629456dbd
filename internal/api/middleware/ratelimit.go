package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RateLimitMessage is returned with 429 responses.
const RateLimitMessage = "Too many requests from this IP, please try again later."

// WindowCounter counts hits per key inside a fixed window.
type WindowCounter interface {
	Hit(ctx context.Context, key string) (count int, resetIn time.Duration, err error)
}

// RateLimit caps each client IP at max requests per counter window. Counter
// failures fail open.
func RateLimit(counter WindowCounter, max int, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if counter == nil || max <= 0 {
			return next
		}
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}

			count, resetIn, err := counter.Hit(c.Request().Context(), "ip:"+c.RealIP())
			if err != nil {
				log.Warn().Err(err).Msg("rate limit counter unavailable")
				return next(c)
			}

			remaining := max - count
			if remaining < 0 {
				remaining = 0
			}
			resetSec := int(resetIn.Round(time.Second).Seconds())

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

			if count > max {
				h.Set("Retry-After", strconv.Itoa(resetSec))
				return echo.NewHTTPError(http.StatusTooManyRequests, RateLimitMessage)
			}
			return next(c)
		}
	}
}
