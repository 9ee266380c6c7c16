package repository

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"golang-market-chat/internal/chat/config"
	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/pkg/common"
	"golang-market-chat/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

type geminiCompletionRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiCompletionRepository creates a CompletionRepository backed by the Gemini API.
func NewGeminiCompletionRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) CompletionRepository {
	return &geminiCompletionRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: newRequestLimiter(cfg.Gemini.MaxRequestPerMinute),
		genAiClient:    genAiClient,
	}
}

func (r *geminiCompletionRepository) Stream(ctx context.Context, messages []dto.ChatMessage) (TokenStream, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	system, contents := toGeminiContents(messages)
	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(r.cfg.AI.Temperature),
		MaxOutputTokens: int32(r.cfg.AI.MaxTokens),
	}
	if system != "" {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	r.logger.DebugContext(ctx, "Opening Gemini stream", logger.StringField("model", r.cfg.Gemini.Model), logger.IntField("contents", len(contents)))

	next, stop := iter.Pull2(r.genAiClient.Models.GenerateContentStream(ctx, r.cfg.Gemini.Model, contents, genCfg))

	// pull the first response so connection and status errors surface before the relay starts
	first, err, ok := next()
	if !ok {
		stop()
		return nil, fmt.Errorf("gemini stream ended before any response: %w", io.ErrUnexpectedEOF)
	}
	if err != nil {
		stop()
		return nil, fmt.Errorf("failed to open gemini stream: %w", err)
	}

	return &geminiTokenStream{next: next, stop: stop, first: first}, nil
}

func toGeminiContents(messages []dto.ChatMessage) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case common.RoleSystem:
			system = append(system, msg.Content)
		case common.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

type geminiTokenStream struct {
	next  func() (*genai.GenerateContentResponse, error, bool)
	stop  func()
	first *genai.GenerateContentResponse
}

func (s *geminiTokenStream) Next() (string, error) {
	for {
		var resp *genai.GenerateContentResponse
		if s.first != nil {
			resp, s.first = s.first, nil
		} else {
			var err error
			var ok bool
			resp, err, ok = s.next()
			if !ok {
				return "", io.EOF
			}
			if err != nil {
				return "", fmt.Errorf("failed to read gemini stream: %w", err)
			}
		}
		if text := resp.Text(); text != "" {
			return text, nil
		}
	}
}

func (s *geminiTokenStream) Close() error {
	s.stop()
	return nil
}
