package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/internal/chat/repository"
	"golang-market-chat/internal/chat/strategy"
	"golang-market-chat/pkg/logger"
	"golang-market-chat/pkg/utils"

	"github.com/patrickmn/go-cache"
)

// QuoteResolver resolves symbols to live quotes. Absence of data is a normal
// outcome and is reported as a nil quote, never as an error.
type QuoteResolver interface {
	Resolve(ctx context.Context, symbol string) *dto.Quote
	// ResolveMany resolves the leading symbols concurrently, up to the configured
	// limit. The result is aligned with those leading symbols; unresolved entries are nil.
	ResolveMany(ctx context.Context, symbols []string) []*dto.Quote
	// Refresh skips both cache tiers, asks the providers and writes through on success.
	Refresh(ctx context.Context, symbol string) *dto.Quote
}

// QuoteResolverConfig holds resolver tuning.
type QuoteResolverConfig struct {
	TTL                  time.Duration
	ProviderTimeout      time.Duration
	MaxConcurrentSymbols int
}

type quoteResolver struct {
	cfg         QuoteResolverConfig
	localCache  *cache.Cache
	distributed repository.QuoteCacheRepository
	strategies  []strategy.QuoteProviderStrategy
	logger      *logger.Logger
	now         func() time.Time
}

// NewLocalQuoteCache creates the process-local quote tier.
func NewLocalQuoteCache(ttl, cleanupInterval time.Duration) *cache.Cache {
	return cache.New(ttl, cleanupInterval)
}

// NewQuoteResolver creates a QuoteResolver. distributed may be nil when Redis is
// not configured; strategies are consulted in order.
func NewQuoteResolver(
	cfg QuoteResolverConfig,
	localCache *cache.Cache,
	distributed repository.QuoteCacheRepository,
	strategies []strategy.QuoteProviderStrategy,
	log *logger.Logger,
) QuoteResolver {
	if cfg.MaxConcurrentSymbols <= 0 {
		cfg.MaxConcurrentSymbols = 3
	}
	return &quoteResolver{
		cfg:         cfg,
		localCache:  localCache,
		distributed: distributed,
		strategies:  strategies,
		logger:      log,
		now:         time.Now,
	}
}

func (r *quoteResolver) Resolve(ctx context.Context, symbol string) *dto.Quote {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil
	}

	if q := r.fromLocal(symbol); q != nil {
		return q
	}
	if q := r.fromDistributed(ctx, symbol); q != nil {
		return q
	}
	return r.fromProviders(ctx, symbol)
}

func (r *quoteResolver) Refresh(ctx context.Context, symbol string) *dto.Quote {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil
	}
	return r.fromProviders(ctx, symbol)
}

func (r *quoteResolver) fromProviders(ctx context.Context, symbol string) *dto.Quote {
	for _, s := range r.strategies {
		if !s.Supports(symbol) {
			continue
		}

		q := r.tryStrategy(ctx, s, symbol)
		if q == nil {
			continue
		}

		q.Symbol = symbol
		r.writeThrough(ctx, *q)
		r.logger.DebugContext(ctx, "Quote resolved from provider",
			logger.StringField("symbol", symbol),
			logger.StringField("provider", s.Name()),
			logger.Field("price", q.Price))
		return q
	}

	r.logger.InfoContext(ctx, "No provider could resolve quote", logger.StringField("symbol", symbol))
	return nil
}

func (r *quoteResolver) tryStrategy(ctx context.Context, s strategy.QuoteProviderStrategy, symbol string) *dto.Quote {
	callCtx := ctx
	if r.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.ProviderTimeout)
		defer cancel()
	}

	q, err := s.TryResolve(callCtx, symbol)
	if err != nil {
		r.logger.WarnContext(ctx, "Quote provider failed",
			logger.StringField("symbol", symbol),
			logger.StringField("provider", s.Name()),
			logger.ErrorField(err))
		return nil
	}
	if q == nil {
		return nil
	}
	if q.Price <= 0 {
		r.logger.WarnContext(ctx, "Quote provider returned non-positive price",
			logger.StringField("symbol", symbol),
			logger.StringField("provider", s.Name()),
			logger.Field("price", q.Price))
		return nil
	}
	return q
}

func (r *quoteResolver) fromLocal(symbol string) *dto.Quote {
	v, ok := r.localCache.Get(symbol)
	if !ok {
		return nil
	}
	entry, ok := v.(dto.CacheEntry)
	if !ok || !utils.WithinTTL(entry.WrittenAt, r.now(), r.cfg.TTL) {
		return nil
	}
	q := entry.Quote
	return &q
}

func (r *quoteResolver) fromDistributed(ctx context.Context, symbol string) *dto.Quote {
	if r.distributed == nil {
		return nil
	}

	entry, err := r.distributed.Get(ctx, symbol)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			r.logger.WarnContext(ctx, "Failed to read distributed quote cache", logger.StringField("symbol", symbol), logger.ErrorField(err))
		}
		return nil
	}

	now := r.now()
	if !utils.WithinTTL(entry.WrittenAt, now, r.cfg.TTL) || entry.Quote.Price <= 0 {
		return nil
	}

	remaining := r.cfg.TTL - now.Sub(entry.WrittenAt)
	r.localCache.Set(symbol, *entry, remaining)

	q := entry.Quote
	return &q
}

func (r *quoteResolver) writeThrough(ctx context.Context, q dto.Quote) {
	entry := dto.CacheEntry{Quote: q, WrittenAt: r.now()}
	r.localCache.Set(q.Symbol, entry, r.cfg.TTL)

	if r.distributed == nil {
		return
	}
	if err := r.distributed.Set(ctx, entry, r.cfg.TTL); err != nil {
		r.logger.WarnContext(ctx, "Failed to write distributed quote cache", logger.StringField("symbol", q.Symbol), logger.ErrorField(err))
	}
}

func (r *quoteResolver) ResolveMany(ctx context.Context, symbols []string) []*dto.Quote {
	if len(symbols) > r.cfg.MaxConcurrentSymbols {
		r.logger.DebugContext(ctx, "Dropping symbols from live enrichment",
			logger.Field("dropped", symbols[r.cfg.MaxConcurrentSymbols:]))
		symbols = symbols[:r.cfg.MaxConcurrentSymbols]
	}

	results := make([]*dto.Quote, len(symbols))
	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			results[i] = r.Resolve(ctx, symbol)
		})
	}
	wg.Wait()

	return results
}
