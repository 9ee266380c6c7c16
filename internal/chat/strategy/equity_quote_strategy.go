package strategy

import (
	"context"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/internal/chat/repository"
)

type finnhubQuoteStrategy struct {
	finnhubRepository repository.FinnhubRepository
}

// NewFinnhubQuoteStrategy is the primary equity provider.
func NewFinnhubQuoteStrategy(finnhubRepository repository.FinnhubRepository) QuoteProviderStrategy {
	return &finnhubQuoteStrategy{finnhubRepository: finnhubRepository}
}

func (s *finnhubQuoteStrategy) Name() string { return "finnhub" }

func (s *finnhubQuoteStrategy) Supports(symbol string) bool {
	return !IsCryptoSymbol(symbol)
}

func (s *finnhubQuoteStrategy) TryResolve(ctx context.Context, symbol string) (*dto.Quote, error) {
	return s.finnhubRepository.GetQuote(ctx, symbol)
}

type yahooQuoteStrategy struct {
	yahooFinanceRepository repository.YahooFinanceRepository
}

// NewYahooQuoteStrategy is the secondary equity provider. Known non-US listings
// are queried with their exchange suffix.
func NewYahooQuoteStrategy(yahooFinanceRepository repository.YahooFinanceRepository) QuoteProviderStrategy {
	return &yahooQuoteStrategy{yahooFinanceRepository: yahooFinanceRepository}
}

func (s *yahooQuoteStrategy) Name() string { return "yahoo" }

func (s *yahooQuoteStrategy) Supports(symbol string) bool {
	return !IsCryptoSymbol(symbol)
}

func (s *yahooQuoteStrategy) TryResolve(ctx context.Context, symbol string) (*dto.Quote, error) {
	quote, err := s.yahooFinanceRepository.GetQuote(ctx, RegionalSymbol(symbol))
	if err != nil {
		return nil, err
	}
	// cache under the symbol the caller asked for
	resolved := *quote
	resolved.Symbol = symbol
	return &resolved, nil
}

type polygonQuoteStrategy struct {
	polygonRepository repository.PolygonRepository
}

// NewPolygonQuoteStrategy is the tertiary equity provider, registered only when configured.
func NewPolygonQuoteStrategy(polygonRepository repository.PolygonRepository) QuoteProviderStrategy {
	return &polygonQuoteStrategy{polygonRepository: polygonRepository}
}

func (s *polygonQuoteStrategy) Name() string { return "polygon" }

func (s *polygonQuoteStrategy) Supports(symbol string) bool {
	return !IsCryptoSymbol(symbol)
}

func (s *polygonQuoteStrategy) TryResolve(ctx context.Context, symbol string) (*dto.Quote, error) {
	return s.polygonRepository.GetQuote(ctx, symbol)
}
