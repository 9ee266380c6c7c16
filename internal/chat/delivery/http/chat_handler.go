package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/internal/chat/service"
	"golang-market-chat/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	headerSessionID    = "X-Session-ID"
	defaultHistorySize = 50
	maxHistorySize     = 200
)

// ChatHandler handles HTTP requests for chat exchanges.
type ChatHandler struct {
	chatService service.ChatService
	identity    service.IdentityResolver
	logger      *logger.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService, identity service.IdentityResolver, logger *logger.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, identity: identity, logger: logger}
}

// RegisterRoutes registers the chat routes to the Echo group.
func (h *ChatHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Chat)
	g.POST("/complete", h.Complete)
	g.GET("/sessions/:session_id/messages", h.GetSessionMessages)
}

func (h *ChatHandler) input(ctx context.Context, c echo.Context, req dto.ChatRequest) service.ChatInput {
	return service.ChatInput{
		Request:  req,
		Identity: h.identity.Resolve(ctx, c.Request().Header.Get(echo.HeaderAuthorization)),
		ClientIP: c.RealIP(),
	}
}

// Chat godoc
// @Summary Stream a chat answer
// @Description Streams newline-delimited JSON events: an optional leading metadata event followed by content events.
// @Tags chat
// @Accept  json
// @Produce  application/x-ndjson
// @Param   request  body    dto.ChatRequest   true    "Chat request"
// @Param   Authorization header string false "Bearer token"
// @Success 200 {object} dto.StreamEvent
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /chat [post]
func (h *ChatHandler) Chat(c echo.Context) error {
	var req dto.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	// the exchange must finish and persist even if the client goes away
	ctx := context.WithoutCancel(c.Request().Context())

	prepared, err := h.chatService.Prepare(ctx, h.input(ctx, c, req))
	if err != nil {
		return h.errorResponse(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "application/x-ndjson")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("X-Accel-Buffering", "no")
	res.Header().Set(headerSessionID, prepared.SessionID)
	res.WriteHeader(http.StatusOK)
	res.Flush()

	if err := h.chatService.Stream(ctx, prepared, newNDJSONWriter(c)); err != nil {
		// headers are already sent; the stream just ends
		h.logger.WarnContext(ctx, "Chat stream ended early", logger.StringField("session_id", prepared.SessionID), logger.ErrorField(err))
	}
	return nil
}

// Complete godoc
// @Summary Get a complete chat answer
// @Description Runs the same pipeline as /chat without streaming. The analysis sentiment is derived from the answer.
// @Tags chat
// @Accept  json
// @Produce  json
// @Param   request  body    dto.ChatRequest   true    "Chat request"
// @Param   Authorization header string false "Bearer token"
// @Success 200 {object} dto.ChatCompleteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /chat/complete [post]
func (h *ChatHandler) Complete(c echo.Context) error {
	var req dto.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	ctx := context.WithoutCancel(c.Request().Context())
	resp, err := h.chatService.Complete(ctx, h.input(ctx, c, req))
	if err != nil {
		return h.errorResponse(c, err)
	}

	c.Response().Header().Set(headerSessionID, resp.SessionID)
	return c.JSON(http.StatusOK, resp)
}

// GetSessionMessages godoc
// @Summary Get the history of a chat session
// @Description Returns the most recent persisted turns of a session, oldest first.
// @Tags chat
// @Produce  json
// @Param   session_id  path    string true    "Session ID"
// @Param   limit  query    int false    "Maximum number of messages" default(50)
// @Success 200 {array} dto.ChatHistoryMessage
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /chat/sessions/{session_id}/messages [get]
func (h *ChatHandler) GetSessionMessages(c echo.Context) error {
	limit := defaultHistorySize
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = min(n, maxHistorySize)
	}

	messages, err := h.chatService.History(c.Request().Context(), c.Param("session_id"), limit)
	if err != nil {
		if errors.Is(err, service.ErrHistoryUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
		}
		h.logger.ErrorContext(c.Request().Context(), "Failed to load chat history", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load chat history"})
	}

	return c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrMissingMessage),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrMessageTooLong):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrMissingCredential):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrQuotaExceeded):
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": service.ErrUpstreamUnavailable.Error()})
	default:
		h.logger.ErrorContext(c.Request().Context(), "Chat request failed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
}
