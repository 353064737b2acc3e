package middleware

import (
	"time"

	"github.com/OpenReservation/reservation-service/pkg/metrics"
	"github.com/labstack/echo/v4"
)

// Prometheus records request latency per method and route pattern.
func Prometheus() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			metrics.RequestDuration.
				WithLabelValues(c.Request().Method, c.Path()).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
