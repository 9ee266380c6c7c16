package http

import (
	"time"

	"golang-market-chat/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RequestID assigns every request an id, echoes it in X-Request-ID and makes it
// available to context-aware logging.
func RequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
		},
	})
}

// AccessLog logs one line per request once the handler returns. Streamed
// responses are logged after the stream ends.
func AccessLog(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			log.InfoContext(req.Context(), "HTTP request",
				logger.StringField("method", req.Method),
				logger.StringField("path", c.Path()),
				logger.IntField("status", c.Response().Status),
				logger.StringField("remote_ip", c.RealIP()),
				logger.Field("latency", time.Since(start)))
			return nil
		}
	}
}

// Register installs the common middleware on e.
func Register(e *echo.Echo, log *logger.Logger) {
	e.Use(middleware.Recover())
	e.Use(RequestID())
	e.Use(AccessLog(log))
}
