package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, stream TokenStream) (string, error) {
	t.Helper()
	var out string
	for {
		delta, err := stream.Next()
		if err != nil {
			return out, err
		}
		out += delta
	}
}

func TestOpenAICompletionRepository_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ai-key", r.Header.Get("Authorization"))

		var req dto.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "test-model", req.Model)
		assert.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range []string{
			`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
			`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
			`: keep-alive`,
			`data: {"choices":[{"delta":{"content":", world"}}]}`,
			`data: [DONE]`,
		} {
			_, _ = w.Write([]byte(line + "\n\n"))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	cfg := newTestConfig()
	cfg.OpenAI.BaseURL = srv.URL
	cfg.OpenAI.APIKey = "ai-key"
	cfg.OpenAI.Model = "test-model"

	stream, err := NewOpenAICompletionRepository(cfg, logger.NewNop()).Stream(context.Background(), []dto.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)
	defer stream.Close()

	text, err := drain(t, stream)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "Hello, world", text)
}

func TestOpenAICompletionRepository_Stream_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	cfg := newTestConfig()
	cfg.OpenAI.BaseURL = srv.URL

	stream, err := NewOpenAICompletionRepository(cfg, logger.NewNop()).Stream(context.Background(), []dto.ChatMessage{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Nil(t, stream)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

type readCloser struct {
	io.Reader
	closed bool
}

func (r *readCloser) Close() error {
	r.closed = true
	return nil
}

func TestSSETokenStream_EndsWithoutSentinel(t *testing.T) {
	body := &readCloser{Reader: strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\ndata: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}")}
	stream := NewSSETokenStream(body)

	text, err := drain(t, stream)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "ab", text)

	require.NoError(t, stream.Close())
	assert.True(t, body.closed)
}

func TestSSETokenStream_IgnoresLinesAfterDone(t *testing.T) {
	body := &readCloser{Reader: strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\ndata: [DONE]\ndata: {\"choices\":[{\"delta\":{\"content\":\"z\"}}]}\n")}

	text, err := drain(t, NewSSETokenStream(body))
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "a", text)
}

type failingReader struct{ sent bool }

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.sent {
		f.sent = true
		return copy(p, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n"), nil
	}
	return 0, errors.New("connection reset")
}

func TestSSETokenStream_ReadFailure(t *testing.T) {
	text, err := drain(t, NewSSETokenStream(&readCloser{Reader: &failingReader{}}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, "partial", text)
}

func TestSSETokenStream_InBandErrorIsFatal(t *testing.T) {
	body := &readCloser{Reader: strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n" +
		"data: {\"error\":{\"message\":\"Rate limit reached for model\",\"type\":\"tokens\"}}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"z\"}}]}\n\ndata: [DONE]\n\n")}

	text, err := drain(t, NewSSETokenStream(body))
	require.ErrorIs(t, err, ErrCompletionStream)
	assert.NotErrorIs(t, err, io.EOF)
	assert.Contains(t, err.Error(), "Rate limit reached")
	assert.Equal(t, "a", text)
}

func TestSSETokenStream_UndecodableChunkIsFatal(t *testing.T) {
	body := &readCloser{Reader: strings.NewReader("data: not-json\n\ndata: [DONE]\n\n")}

	text, err := drain(t, NewSSETokenStream(body))
	require.ErrorIs(t, err, ErrCompletionStream)
	assert.Empty(t, text)
}
