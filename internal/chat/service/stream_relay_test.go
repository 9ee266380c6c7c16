package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/internal/chat/repository"
	"golang-market-chat/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	events  []dto.StreamEvent
	failAt  int
	written int
}

func (w *recordingWriter) WriteEvent(event dto.StreamEvent) error {
	w.written++
	if w.failAt > 0 && w.written >= w.failAt {
		return errors.New("broken pipe")
	}
	w.events = append(w.events, event)
	return nil
}

// chunkReader returns at most size bytes per Read.
type chunkReader struct {
	data []byte
	size int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.size
	if n > len(p) {
		n = len(p)
	}
	if n > len(r.data) {
		n = len(r.data)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func sseBody(deltas ...string) string {
	var b strings.Builder
	b.WriteString(": keep-alive\n\n")
	for i, d := range deltas {
		fmt.Fprintf(&b, "data: {\"id\":\"c%d\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\r\n\r\n", i, d)
	}
	b.WriteString("data: [DONE]\n\n")
	b.WriteString("data: {\"choices\":[{\"delta\":{\"content\":\"after done\"}}]}\n\n")
	return b.String()
}

func relayBody(t *testing.T, body string, chunk int, meta *dto.AnalysisSummary) ([]dto.StreamEvent, string) {
	t.Helper()
	stream := repository.NewSSETokenStream(io.NopCloser(&chunkReader{data: []byte(body), size: chunk}))
	w := &recordingWriter{}

	text, err := NewRelaySession(stream, logger.NewNop()).Relay(context.Background(), w, meta)
	require.NoError(t, err)
	return w.events, text
}

func TestRelay_FramingIndependentOfChunkBoundaries(t *testing.T) {
	body := sseBody("Bitcoin ", "is trading ", "near \"highs\"", " — with ünïcode", ".")
	want, wantText := relayBody(t, body, len(body), nil)

	require.Len(t, want, 5)
	assert.Equal(t, "Bitcoin is trading near \"highs\" — with ünïcode.", wantText)

	for chunk := 1; chunk < 64; chunk++ {
		got, text := relayBody(t, body, chunk, nil)
		assert.Equal(t, want, got, "chunk size %d", chunk)
		assert.Equal(t, wantText, text, "chunk size %d", chunk)
	}
}

func TestRelay_MetadataFirstThenContentInOrder(t *testing.T) {
	meta := &dto.AnalysisSummary{Sentiment: dto.SentimentNeutral, Symbol: "BTC", Symbols: []string{"BTC"}}
	events, _ := relayBody(t, sseBody("a", "b", "c"), 7, meta)

	require.Len(t, events, 4)
	assert.Equal(t, dto.MetadataEvent(meta), events[0])
	assert.Equal(t, dto.ContentEvent("a"), events[1])
	assert.Equal(t, dto.ContentEvent("b"), events[2])
	assert.Equal(t, dto.ContentEvent("c"), events[3])
}

func TestRelay_ClientGoneStillDrainsUpstream(t *testing.T) {
	body := sseBody("one ", "two ", "three")
	stream := repository.NewSSETokenStream(io.NopCloser(strings.NewReader(body)))
	w := &recordingWriter{failAt: 2}
	session := NewRelaySession(stream, logger.NewNop())

	text, err := session.Relay(context.Background(), w, nil)

	require.NoError(t, err)
	assert.Equal(t, "one two three", text)
	assert.Len(t, w.events, 1)
	assert.Equal(t, 2, w.written)
	assert.Equal(t, RelayComplete, session.State())
}

type scriptedStream struct {
	deltas []string
	err    error
	closed bool
}

func (s *scriptedStream) Next() (string, error) {
	if len(s.deltas) == 0 {
		return "", s.err
	}
	d := s.deltas[0]
	s.deltas = s.deltas[1:]
	return d, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

func TestRelay_MidStreamFailure(t *testing.T) {
	stream := &scriptedStream{deltas: []string{"partial"}, err: errors.New("connection reset")}
	w := &recordingWriter{}
	session := NewRelaySession(stream, logger.NewNop())

	_, err := session.Relay(context.Background(), w, nil)

	require.ErrorIs(t, err, ErrUpstreamInterrupted)
	assert.Equal(t, RelayFailed, session.State())
	assert.True(t, stream.closed)
	assert.Equal(t, []dto.StreamEvent{dto.ContentEvent("partial")}, w.events)
}

func TestRelay_EmptyAnswerFails(t *testing.T) {
	stream := &scriptedStream{err: io.EOF}
	w := &recordingWriter{}
	session := NewRelaySession(stream, logger.NewNop())

	text, err := session.Relay(context.Background(), w, nil)

	require.ErrorIs(t, err, ErrUpstreamInterrupted)
	assert.ErrorIs(t, err, ErrEmptyAnswer)
	assert.Empty(t, text)
	assert.Equal(t, RelayFailed, session.State())
}

func TestRelay_UpstreamErrorPayloadFails(t *testing.T) {
	body := "data: {\"error\":{\"message\":\"Rate limit reached\"}}\n\n"
	stream := repository.NewSSETokenStream(io.NopCloser(strings.NewReader(body)))
	meta := &dto.AnalysisSummary{Symbol: "AAPL", Symbols: []string{"AAPL"}}
	w := &recordingWriter{}
	session := NewRelaySession(stream, logger.NewNop())

	_, err := session.Relay(context.Background(), w, meta)

	require.ErrorIs(t, err, ErrUpstreamInterrupted)
	assert.ErrorIs(t, err, repository.ErrCompletionStream)
	assert.Equal(t, RelayFailed, session.State())
	assert.Equal(t, []dto.StreamEvent{dto.MetadataEvent(meta)}, w.events)
}

type stubCompletion struct {
	stream repository.TokenStream
	err    error
	calls  int
	last   []dto.ChatMessage
}

func (c *stubCompletion) Stream(_ context.Context, messages []dto.ChatMessage) (repository.TokenStream, error) {
	c.calls++
	c.last = messages
	return c.stream, c.err
}

func TestStreamRelay_OpenFailureIsUpstreamUnavailable(t *testing.T) {
	completion := &stubCompletion{err: &repository.StatusError{StatusCode: 503, Body: "overloaded"}}

	_, err := NewStreamRelay(completion, logger.NewNop()).Open(context.Background(), nil)

	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	var statusErr *repository.StatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestRelayState_String(t *testing.T) {
	assert.Equal(t, "IDLE", RelayIdle.String())
	assert.Equal(t, "COMPLETE", RelayComplete.String())
	assert.Equal(t, "RelayState(9)", RelayState(9).String())
}
