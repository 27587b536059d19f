package middleware

import (
	"beautypro-payments/internal/ratelimit"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RateLimit limits requests per client IP within a route class. Limiter
// errors let the request through.
func RateLimit(limiter ratelimit.Limiter, routeClass string, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil {
				return next(c)
			}

			key := routeClass + ":" + c.RealIP()
			ok, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable", "route_class", routeClass, "err", err)
				return next(c)
			}
			if !ok {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}
