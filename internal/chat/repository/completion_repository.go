package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-market-chat/internal/chat/config"
	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/pkg/logger"
	"golang-market-chat/pkg/sse"

	"golang.org/x/time/rate"
)

// ErrCompletionStream is returned by a TokenStream whose upstream sent an error
// payload or a chunk that could not be decoded.
var ErrCompletionStream = errors.New("completion stream error")

// TokenStream yields text deltas from an upstream completion in arrival order.
// Next returns io.EOF once the upstream signals the end of the answer.
type TokenStream interface {
	Next() (string, error)
	Close() error
}

// CompletionRepository opens streamed completions against an upstream language model.
type CompletionRepository interface {
	Stream(ctx context.Context, messages []dto.ChatMessage) (TokenStream, error)
}

type openAICompletionRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

// NewOpenAICompletionRepository creates a CompletionRepository for any OpenAI-compatible
// chat completions endpoint (OpenAI, Groq, OpenRouter).
func NewOpenAICompletionRepository(cfg *config.Config, log *logger.Logger) CompletionRepository {
	return &openAICompletionRepository{
		client: &http.Client{
			// streamed bodies are bounded by the caller's context instead of a client timeout
			Timeout: 0,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: newRequestLimiter(cfg.OpenAI.MaxRequestPerMinute),
	}
}

func (r *openAICompletionRepository) Stream(ctx context.Context, messages []dto.ChatMessage) (TokenStream, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		r.logger.ErrorContext(ctx, "failed to wait for request limit", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := dto.ChatCompletionRequest{
		Model:       r.cfg.OpenAI.Model,
		Messages:    messages,
		Stream:      true,
		Temperature: r.cfg.AI.Temperature,
		MaxTokens:   r.cfg.AI.MaxTokens,
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.OpenAI.BaseURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.cfg.OpenAI.APIKey))

	r.logger.DebugContext(ctx, "Opening completion stream",
		logger.StringField("url", r.cfg.OpenAI.BaseURL),
		logger.StringField("model", r.cfg.OpenAI.Model),
		logger.IntField("messages", len(messages)))

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to completion API: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		r.logger.ErrorContext(ctx, "Completion API returned non-success status",
			logger.IntField("status", resp.StatusCode),
			logger.StringField("body", string(body)))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	r.logger.DebugContext(ctx, "Completion stream opened", logger.Field("latency", time.Since(start)))
	return NewSSETokenStream(resp.Body), nil
}

// sseTokenStream decodes OpenAI-compatible chat completion chunks from an event stream.
type sseTokenStream struct {
	body      io.ReadCloser
	tokenizer sse.LineTokenizer
	buf       []byte
	pending   []string
	done      bool
	err       error
}

// NewSSETokenStream wraps an event-stream body. Chunk boundaries of the body are irrelevant.
func NewSSETokenStream(body io.ReadCloser) TokenStream {
	return &sseTokenStream{
		body: body,
		buf:  make([]byte, 4096),
	}
}

func (s *sseTokenStream) Next() (string, error) {
	for {
		if len(s.pending) > 0 {
			delta := s.pending[0]
			s.pending = s.pending[1:]
			return delta, nil
		}
		if s.err != nil {
			return "", s.err
		}
		if s.done {
			return "", io.EOF
		}

		n, err := s.body.Read(s.buf)
		if n > 0 {
			s.consume(s.tokenizer.Feed(s.buf[:n]))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// an upstream that closes without the sentinel still ends the answer
				s.consume([]string{s.tokenizer.Flush()})
				s.done = true
				continue
			}
			if s.err == nil {
				s.err = fmt.Errorf("failed to read completion stream: %w", err)
			}
		}
	}
}

func (s *sseTokenStream) consume(lines []string) {
	for _, line := range lines {
		if s.done || s.err != nil {
			return
		}
		kind, payload := sse.ParseLine(line)
		switch kind {
		case sse.LineDone:
			s.done = true
		case sse.LineData:
			var chunk dto.ChatCompletionChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				s.err = fmt.Errorf("%w: undecodable chunk: %w", ErrCompletionStream, err)
				return
			}
			if chunk.Error != nil {
				s.err = fmt.Errorf("%w: upstream reported %q", ErrCompletionStream, chunk.Error.Message)
				return
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content != "" {
					s.pending = append(s.pending, choice.Delta.Content)
				}
			}
		}
	}
}

func (s *sseTokenStream) Close() error {
	return s.body.Close()
}
