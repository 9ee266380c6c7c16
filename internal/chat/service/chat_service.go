package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang-market-chat/internal/chat/config"
	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/internal/chat/repository"
	"golang-market-chat/pkg/common"
	"golang-market-chat/pkg/logger"

	"github.com/google/uuid"
)

// ChatInput is one inbound chat request with the caller's resolved identity.
type ChatInput struct {
	Request dto.ChatRequest
	// Identity is the verified user id, empty for anonymous callers.
	Identity string
	// ClientIP keys the anonymous quota.
	ClientIP string
}

// PreparedChat is a request that passed every pre-stream check and holds an open upstream.
type PreparedChat struct {
	SessionID string
	Summary   *dto.AnalysisSummary

	input   ChatInput
	symbols []string
	relay   *RelaySession
	cancel  context.CancelFunc
}

// ChatService orchestrates one chat exchange: gate, enrich, compose, relay, persist.
type ChatService interface {
	// Prepare runs every check that can still fail with a plain error response:
	// validation, credential, quota and the upstream connection.
	Prepare(ctx context.Context, in ChatInput) (*PreparedChat, error)
	// Stream relays the prepared answer to w and persists the exchange once complete.
	Stream(ctx context.Context, prepared *PreparedChat, w EventWriter) error
	// Complete runs the whole exchange without streaming and derives sentiment from the answer.
	Complete(ctx context.Context, in ChatInput) (*dto.ChatCompleteResponse, error)
	// History returns the most recent persisted turns of a session, oldest first.
	History(ctx context.Context, sessionID string, limit int) ([]dto.ChatHistoryMessage, error)
}

// ErrHistoryUnavailable is returned when no chat-history store is configured.
var ErrHistoryUnavailable = errors.New("chat history store is not configured")

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

type chatService struct {
	cfg      *config.Config
	limiter  RateLimiter
	resolver QuoteResolver
	pages    repository.PageContentRepository
	relay    StreamRelay
	sink     PersistenceSink
	history  repository.ChatHistoryRepository
	alerter  *Alerter
	logger   *logger.Logger
	now      func() time.Time
}

// NewChatService creates a new ChatService. limiter, pages and history may be nil:
// a nil limiter skips the quota gate, nil pages skips link extraction and nil
// history disables the history endpoint.
func NewChatService(
	cfg *config.Config,
	limiter RateLimiter,
	resolver QuoteResolver,
	pages repository.PageContentRepository,
	relay StreamRelay,
	sink PersistenceSink,
	history repository.ChatHistoryRepository,
	alerter *Alerter,
	log *logger.Logger,
) ChatService {
	return &chatService{
		cfg:      cfg,
		limiter:  limiter,
		resolver: resolver,
		pages:    pages,
		relay:    relay,
		sink:     sink,
		history:  history,
		alerter:  alerter,
		logger:   log,
		now:      time.Now,
	}
}

func (s *chatService) validate(req *dto.ChatRequest) error {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return ErrMissingMessage
	}
	if utf8.RuneCountInString(req.Message) > s.cfg.Chat.MaxMessageLength {
		return ErrMessageTooLong
	}

	req.Mode = strings.ToLower(strings.TrimSpace(req.Mode))
	switch req.Mode {
	case "":
		req.Mode = common.ModeGeneral
	case common.ModeGeneral, common.ModeMarket, common.ModeCrypto:
	default:
		return ErrInvalidMode
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	return nil
}

// checkQuota reports whether the caller may proceed. A store failure lets the request through.
func (s *chatService) checkQuota(ctx context.Context, in ChatInput) bool {
	if s.limiter == nil || in.Identity != "" || !common.IsElevatedMode(in.Request.Mode) {
		return true
	}

	allowed, err := s.limiter.Check(ctx, in.ClientIP)
	if err != nil {
		s.logger.WarnContext(ctx, "Rate limit store unavailable, allowing request",
			logger.StringField("identity", in.ClientIP), logger.ErrorField(err))
		return true
	}
	return allowed
}

func (s *chatService) Prepare(ctx context.Context, in ChatInput) (*PreparedChat, error) {
	if err := s.validate(&in.Request); err != nil {
		return nil, err
	}
	if s.cfg.CompletionAPIKey() == "" {
		s.logger.ErrorContext(ctx, "Completion provider credential is missing", logger.StringField("provider", s.cfg.AI.Provider))
		return nil, ErrMissingCredential
	}
	if !s.checkQuota(ctx, in) {
		s.logger.InfoContext(ctx, "Anonymous quota exceeded", logger.StringField("identity", in.ClientIP))
		return nil, ErrQuotaExceeded
	}

	req := in.Request
	promptMode := req.Mode
	var (
		symbols []string
		quotes  []*dto.Quote
		summary *dto.AnalysisSummary
	)

	if common.IsElevatedMode(req.Mode) {
		detected := ExtractTickers(req.Message, DefaultTickerAliases, DefaultCryptoKeywords)
		symbols = detected.Symbols
		if len(symbols) == 0 && req.Mode == common.ModeCrypto && s.cfg.Chat.DefaultCryptoSymbol != "" {
			symbols = []string{s.cfg.Chat.DefaultCryptoSymbol}
		}
		// The stored exchange keeps the requested mode; only the persona changes.
		if req.Mode == common.ModeMarket && detected.IsCrypto {
			promptMode = common.ModeCrypto
		}

		quotes = s.resolver.ResolveMany(ctx, symbols)
		summary = BuildAnalysisSummary(symbols, quotes)

		s.logger.DebugContext(ctx, "Market context resolved",
			logger.Field("symbols", symbols),
			logger.Field("is_crypto", detected.IsCrypto),
			logger.StringField("persona_mode", promptMode),
			logger.IntField("enriched", len(quotes)))
	}

	messages := ComposePrompt(PromptInput{
		Mode:          promptMode,
		Message:       req.Message,
		Portfolio:     req.Portfolio,
		Quotes:        quotes,
		PageText:      s.pageText(ctx, req.Message),
		PriorTurns:    req.PriorTurns,
		MaxPriorTurns: s.cfg.Chat.MaxPriorTurns,
		MaxPageChars:  s.cfg.Scraper.MaxChars,
	})

	upstreamCtx, cancel := context.WithTimeout(ctx, s.cfg.Chat.UpstreamTimeout)
	relay, err := s.relay.Open(upstreamCtx, messages)
	if err != nil {
		cancel()
		s.alerter.Alert(ctx, "completion upstream unavailable", err, "session_id="+req.SessionID)
		return nil, err
	}

	in.Request = req
	return &PreparedChat{
		SessionID: req.SessionID,
		Summary:   summary,
		input:     in,
		symbols:   symbols,
		relay:     relay,
		cancel:    cancel,
	}, nil
}

// pageText extracts the first linked page, if any. Extraction failures only drop the page.
func (s *chatService) pageText(ctx context.Context, message string) string {
	if s.pages == nil {
		return ""
	}
	link := urlPattern.FindString(message)
	if link == "" {
		return ""
	}
	text, err := s.pages.Extract(ctx, link)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to extract linked page", logger.StringField("url", link), logger.ErrorField(err))
		return ""
	}
	return text
}

func (s *chatService) Stream(ctx context.Context, prepared *PreparedChat, w EventWriter) error {
	defer prepared.cancel()

	text, err := prepared.relay.Relay(ctx, w, prepared.Summary)
	if err != nil {
		s.alerter.Alert(ctx, "completion stream interrupted", err, "session_id="+prepared.SessionID)
		return err
	}

	s.sink.Persist(ctx, s.exchange(prepared, text, prepared.Summary))
	return nil
}

func (s *chatService) Complete(ctx context.Context, in ChatInput) (*dto.ChatCompleteResponse, error) {
	prepared, err := s.Prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	defer prepared.cancel()

	text, err := prepared.relay.Relay(ctx, discardWriter{}, nil)
	if err != nil {
		s.alerter.Alert(ctx, "completion stream interrupted", err, "session_id="+prepared.SessionID)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	var summary *dto.AnalysisSummary
	if prepared.Summary != nil {
		copied := *prepared.Summary
		copied.Sentiment = DeriveSentiment(text)
		summary = &copied
	}

	s.sink.Persist(ctx, s.exchange(prepared, text, summary))
	return &dto.ChatCompleteResponse{SessionID: prepared.SessionID, Response: text, Analysis: summary}, nil
}

func (s *chatService) exchange(prepared *PreparedChat, text string, summary *dto.AnalysisSummary) dto.Exchange {
	req := prepared.input.Request
	return dto.Exchange{
		SessionID:     req.SessionID,
		Identity:      prepared.input.Identity,
		Mode:          req.Mode,
		UserText:      req.Message,
		AssistantText: text,
		Symbols:       prepared.symbols,
		Analysis:      summary,
		CreatedAt:     s.now(),
	}
}

func (s *chatService) History(ctx context.Context, sessionID string, limit int) ([]dto.ChatHistoryMessage, error) {
	if s.history == nil {
		return nil, ErrHistoryUnavailable
	}

	rows, err := s.history.FindBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	out := make([]dto.ChatHistoryMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.ChatHistoryMessage{
			Role:      row.Role,
			Content:   row.Content,
			Mode:      row.Mode,
			Symbols:   row.Symbols,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

type discardWriter struct{}

func (discardWriter) WriteEvent(dto.StreamEvent) error { return nil }
