package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"golang-market-chat/internal/chat/config"
	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/internal/chat/repository"
	"golang-market-chat/internal/chat/strategy"
	"golang-market-chat/pkg/common"
	"golang-market-chat/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu        sync.Mutex
	exchanges []dto.Exchange
}

func (s *recordingSink) Persist(_ context.Context, exchange dto.Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append(s.exchanges, exchange)
}

type countingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *countingNotifier) SendMessage(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

type chatFixture struct {
	svc        ChatService
	cfg        *config.Config
	equity     *fakeStrategy
	crypto     *fakeStrategy
	completion *stubCompletion
	sink       *recordingSink
	mr         *miniredis.Miniredis
}

func newChatFixture(t *testing.T, deltas ...string) *chatFixture {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.OpenAI.APIKey = "test-key"

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	equity := &fakeStrategy{name: "equity", resolve: priced(100)}
	crypto := &fakeStrategy{name: "crypto", crypto: true, resolve: priced(65000)}
	resolver := NewQuoteResolver(
		QuoteResolverConfig{TTL: cfg.Quote.CacheTTL, ProviderTimeout: time.Second, MaxConcurrentSymbols: cfg.Quote.MaxConcurrentSymbols},
		NewLocalQuoteCache(cfg.Quote.CacheTTL, cfg.Quote.CacheCleanupInterval),
		repository.NewQuoteCacheRepository(rdb),
		[]strategy.QuoteProviderStrategy{equity, crypto},
		logger.NewNop(),
	)
	limiter := NewRateLimiter(repository.NewRateLimitRepository(rdb), cfg.Chat.RateLimitWindow, cfg.Chat.RateLimitMaxRequests, logger.NewNop())

	if len(deltas) == 0 {
		deltas = []string{"Live ", "answer."}
	}
	completion := &stubCompletion{stream: &scriptedStream{deltas: deltas, err: io.EOF}}
	sink := &recordingSink{}

	svc := NewChatService(cfg, limiter, resolver, nil, NewStreamRelay(completion, logger.NewNop()), sink, nil, nil, logger.NewNop())
	return &chatFixture{svc: svc, cfg: cfg, equity: equity, crypto: crypto, completion: completion, sink: sink, mr: mr}
}

func (f *chatFixture) run(t *testing.T, in ChatInput) ([]dto.StreamEvent, error) {
	t.Helper()
	prepared, err := f.svc.Prepare(context.Background(), in)
	if err != nil {
		return nil, err
	}
	w := &recordingWriter{}
	err = f.svc.Stream(context.Background(), prepared, w)
	return w.events, err
}

func anonymous(message, mode string) ChatInput {
	return ChatInput{Request: dto.ChatRequest{Message: message, Mode: mode, SessionID: "s-1"}, ClientIP: "203.0.113.7"}
}

func TestChatService_ScenarioA_CryptoQuestion(t *testing.T) {
	f := newChatFixture(t)

	events, err := f.run(t, anonymous("What's Bitcoin doing?", common.ModeCrypto))
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, dto.StreamEventMetadata, events[0].Type)
	assert.Contains(t, events[0].Data.Symbols, "BTC")
	for _, e := range events[1:] {
		assert.Equal(t, dto.StreamEventContent, e.Type)
	}

	require.Len(t, f.sink.exchanges, 1)
	ex := f.sink.exchanges[0]
	assert.Equal(t, "s-1", ex.SessionID)
	assert.Equal(t, "Live answer.", ex.AssistantText)
	assert.Equal(t, "What's Bitcoin doing?", ex.UserText)
	assert.Contains(t, f.completion.last[0].Content, "BTC: $65000.00")
}

func TestChatService_CryptoModeWithoutSymbolUsesDefault(t *testing.T) {
	f := newChatFixture(t)

	events, err := f.run(t, anonymous("how is the market today", common.ModeCrypto))
	require.NoError(t, err)

	assert.Equal(t, []string{f.cfg.Chat.DefaultCryptoSymbol}, events[0].Data.Symbols)
}

func TestChatService_MarketModeCryptoQuestionUsesCryptoPersona(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.run(t, anonymous("is bitcoin a good hedge", common.ModeMarket))
	require.NoError(t, err)

	system := f.completion.last[0].Content
	assert.Contains(t, system, "crypto-asset analyst")
	assert.NotContains(t, system, "equity market analyst")
	require.Len(t, f.sink.exchanges, 1)
	assert.Equal(t, common.ModeMarket, f.sink.exchanges[0].Mode)
}

func TestChatService_MarketModeEquityQuestionKeepsEquityPersona(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.run(t, anonymous("how did apple close", common.ModeMarket))
	require.NoError(t, err)

	assert.Contains(t, f.completion.last[0].Content, "equity market analyst")
}

func TestChatService_ScenarioB_OnlyFirstThreeEnriched(t *testing.T) {
	f := newChatFixture(t)

	events, err := f.run(t, anonymous("AAPL MSFT GOOGL AMZN TSLA", common.ModeMarket))
	require.NoError(t, err)

	assert.Equal(t, int32(3), f.equity.calls.Load())
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"}, events[0].Data.Symbols)

	system := f.completion.last[0].Content
	assert.Contains(t, system, "AAPL: $")
	assert.Contains(t, system, "GOOGL: $")
	assert.NotContains(t, system, "AMZN: $")
	assert.NotContains(t, system, "TSLA: $")
}

func TestChatService_ScenarioC_EleventhRequestRejected(t *testing.T) {
	f := newChatFixture(t)

	for i := 0; i < 10; i++ {
		f.completion.stream = &scriptedStream{deltas: []string{"ok"}, err: io.EOF}
		_, err := f.run(t, anonymous("AAPL?", common.ModeMarket))
		require.NoError(t, err, "request %d", i+1)
	}
	callsBefore := f.equity.calls.Load()
	completionsBefore := f.completion.calls

	_, err := f.run(t, anonymous("NVDA?", common.ModeMarket))

	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, callsBefore, f.equity.calls.Load())
	assert.Equal(t, completionsBefore, f.completion.calls)
	assert.Len(t, f.sink.exchanges, 10)
}

func TestChatService_QuotaOnlyForAnonymousElevated(t *testing.T) {
	f := newChatFixture(t)

	for i := 0; i < 12; i++ {
		f.completion.stream = &scriptedStream{deltas: []string{"ok"}, err: io.EOF}
		_, err := f.run(t, anonymous("hello", common.ModeGeneral))
		require.NoError(t, err)

		f.completion.stream = &scriptedStream{deltas: []string{"ok"}, err: io.EOF}
		in := anonymous("AAPL?", common.ModeMarket)
		in.Identity = "user-1"
		_, err = f.run(t, in)
		require.NoError(t, err)
	}
}

func TestChatService_ScenarioD_AllEquityProvidersFail(t *testing.T) {
	f := newChatFixture(t)
	f.equity.resolve = failing

	events, err := f.run(t, anonymous("thoughts on ZZZZ", common.ModeMarket))
	require.NoError(t, err)

	assert.Equal(t, []string{"ZZZZ"}, events[0].Data.Symbols)
	assert.Equal(t, dto.ContentEvent("Live "), events[1])
	assert.NotContains(t, f.completion.last[0].Content, "ZZZZ: $")
	assert.NotContains(t, f.completion.last[0].Content, "Live market data")
	assert.Len(t, f.sink.exchanges, 1)
}

func TestChatService_GeneralModeHasNoMetadata(t *testing.T) {
	f := newChatFixture(t)

	events, err := f.run(t, anonymous("Tell me about AAPL", common.ModeGeneral))
	require.NoError(t, err)

	assert.Equal(t, dto.StreamEventContent, events[0].Type)
	assert.Equal(t, int32(0), f.equity.calls.Load())
}

func TestChatService_PreStreamErrorsInOrder(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.Prepare(context.Background(), anonymous("   ", common.ModeMarket))
	assert.ErrorIs(t, err, ErrMissingMessage)

	_, err = f.svc.Prepare(context.Background(), anonymous("hi", "options"))
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, err = f.svc.Prepare(context.Background(), anonymous(strings.Repeat("x", f.cfg.Chat.MaxMessageLength+1), common.ModeGeneral))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	f.cfg.OpenAI.APIKey = ""
	_, err = f.svc.Prepare(context.Background(), anonymous("", common.ModeMarket))
	assert.ErrorIs(t, err, ErrMissingMessage)
	_, err = f.svc.Prepare(context.Background(), anonymous("AAPL?", common.ModeMarket))
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, 0, f.completion.calls)
}

func TestChatService_UpstreamOpenFailure(t *testing.T) {
	f := newChatFixture(t)
	f.completion.err = errors.New("dial tcp: connection refused")

	_, err := f.run(t, anonymous("AAPL?", common.ModeMarket))

	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Empty(t, f.sink.exchanges)
}

func TestChatService_MidStreamFailureNotPersisted(t *testing.T) {
	f := newChatFixture(t)
	f.completion.stream = &scriptedStream{deltas: []string{"half"}, err: errors.New("unexpected EOF")}

	events, err := f.run(t, anonymous("AAPL?", common.ModeMarket))

	require.ErrorIs(t, err, ErrUpstreamInterrupted)
	assert.Len(t, events, 2)
	assert.Empty(t, f.sink.exchanges)
}

func TestChatService_UpstreamErrorPayloadNotPersisted(t *testing.T) {
	f := newChatFixture(t)
	body := "data: {\"error\":{\"message\":\"Rate limit reached for model\"}}\n\n"
	f.completion.stream = repository.NewSSETokenStream(io.NopCloser(strings.NewReader(body)))

	events, err := f.run(t, anonymous("AAPL?", common.ModeMarket))

	require.ErrorIs(t, err, ErrUpstreamInterrupted)
	assert.ErrorIs(t, err, repository.ErrCompletionStream)
	require.Len(t, events, 1)
	assert.Equal(t, dto.StreamEventMetadata, events[0].Type)
	assert.Empty(t, f.sink.exchanges)
}

func TestChatService_EmptyAnswerNotPersisted(t *testing.T) {
	f := newChatFixture(t)
	f.completion.stream = &scriptedStream{err: io.EOF}

	_, err := f.run(t, anonymous("AAPL?", common.ModeMarket))
	require.ErrorIs(t, err, ErrEmptyAnswer)
	assert.Empty(t, f.sink.exchanges)

	f.completion.stream = &scriptedStream{err: io.EOF}
	_, err = f.svc.Complete(context.Background(), anonymous("AAPL?", common.ModeMarket))
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Empty(t, f.sink.exchanges)
}

func TestChatService_ClientDisconnectStillPersists(t *testing.T) {
	f := newChatFixture(t, "one ", "two ", "three")

	prepared, err := f.svc.Prepare(context.Background(), anonymous("AAPL?", common.ModeMarket))
	require.NoError(t, err)
	require.NoError(t, f.svc.Stream(context.Background(), prepared, &recordingWriter{failAt: 1}))

	require.Len(t, f.sink.exchanges, 1)
	assert.Equal(t, "one two three", f.sink.exchanges[0].AssistantText)
}

func TestChatService_GeneratesSessionID(t *testing.T) {
	f := newChatFixture(t)
	in := anonymous("hello", common.ModeGeneral)
	in.Request.SessionID = ""

	prepared, err := f.svc.Prepare(context.Background(), in)
	require.NoError(t, err)
	require.NoError(t, f.svc.Stream(context.Background(), prepared, &recordingWriter{}))

	assert.Len(t, prepared.SessionID, 36)
	assert.Equal(t, prepared.SessionID, f.sink.exchanges[0].SessionID)
}

func TestChatService_CompleteDerivesSentiment(t *testing.T) {
	f := newChatFixture(t, "Strong ", "rally ", "with upside.")

	resp, err := f.svc.Complete(context.Background(), anonymous("AAPL?", common.ModeMarket))
	require.NoError(t, err)

	assert.Equal(t, "Strong rally with upside.", resp.Response)
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, dto.SentimentBullish, resp.Analysis.Sentiment)
	require.Len(t, f.sink.exchanges, 1)
	assert.Equal(t, dto.SentimentBullish, f.sink.exchanges[0].Analysis.Sentiment)
}

func TestChatService_HistoryUnavailableWithoutStore(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.History(context.Background(), "s-1", 50)

	assert.ErrorIs(t, err, ErrHistoryUnavailable)
}

func TestChatService_AlertsOnUpstreamFailure(t *testing.T) {
	f := newChatFixture(t)
	notifier := &countingNotifier{}
	svc := f.svc.(*chatService)
	svc.alerter = NewAlerter(notifier, time.Hour, logger.NewNop())
	f.completion.err = errors.New("boom")

	_, err := f.run(t, anonymous("hi", common.ModeGeneral))
	require.Error(t, err)
	_, err = f.run(t, anonymous("hi", common.ModeGeneral))
	require.Error(t, err)

	assert.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.messages) == 1
	}, time.Second, 10*time.Millisecond)
}
