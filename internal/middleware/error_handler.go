package middleware

import (
	"net/http"

	"github.com/OpenReservation/reservation-service/internal/dto"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NewErrorHandler builds the central echo error handler. Handlers return
// errors (sentinel-mapped echo.HTTPError or raw infrastructure failures);
// everything is rendered as a dto.ErrorResponse here. Raw errors become an
// opaque 500 and are logged, so infrastructure details never reach a client.
func NewErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "please retry"

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		if jsonErr := c.JSON(code, dto.ErrorResponse{Message: msg}); jsonErr != nil {
			logger.Warn("error response write failed", zap.Error(jsonErr))
		}
	}
}
