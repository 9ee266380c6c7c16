package http

import (
	"net/http"
	"strings"

	"golang-market-chat/internal/chat/service"
	"golang-market-chat/pkg/logger"

	"github.com/labstack/echo/v4"
)

// QuoteHandler handles HTTP requests for live quotes.
type QuoteHandler struct {
	resolver service.QuoteResolver
	logger   *logger.Logger
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(resolver service.QuoteResolver, logger *logger.Logger) *QuoteHandler {
	return &QuoteHandler{resolver: resolver, logger: logger}
}

// RegisterRoutes registers the quote routes to the Echo group.
func (h *QuoteHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/:symbol", h.GetQuote)
}

// GetQuote godoc
// @Summary Get a live quote
// @Description Resolves a symbol through the quote cache and provider chain
// @Tags quotes
// @Produce  json
// @Param   symbol  path    string true    "Ticker symbol, e.g. AAPL or BTC"
// @Success 200 {object} dto.Quote
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /quotes/{symbol} [get]
func (h *QuoteHandler) GetQuote(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(c.Param("symbol"), "$")))
	if symbol == "" || len(symbol) > 12 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid symbol"})
	}

	quote := h.resolver.Resolve(c.Request().Context(), symbol)
	if quote == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No quote available for " + symbol})
	}

	return c.JSON(http.StatusOK, quote)
}
