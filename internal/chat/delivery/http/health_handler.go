package http

import (
	"context"
	"net/http"
	"time"

	"golang-market-chat/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Pinger is a dependency whose reachability is reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler reports liveness and dependency status.
type HealthHandler struct {
	deps   map[string]Pinger
	logger *logger.Logger
}

// NewHealthHandler creates a new HealthHandler. Only configured dependencies should be passed.
func NewHealthHandler(deps map[string]Pinger, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{deps: deps, logger: logger}
}

// Health godoc
// @Summary Health check
// @Description Reports liveness and the reachability of Redis and Postgres
// @Tags health
// @Produce  json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "Health check dependency failed", logger.StringField("dependency", name), logger.ErrorField(err))
			body[name] = "unavailable"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		body[name] = "ok"
	}

	return c.JSON(status, body)
}
