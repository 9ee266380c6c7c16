package strategy

import (
	"context"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/internal/chat/repository"
)

type cryptoQuoteStrategy struct {
	coinGeckoRepository repository.CoinGeckoRepository
}

// NewCryptoQuoteStrategy resolves crypto symbols through CoinGecko.
func NewCryptoQuoteStrategy(coinGeckoRepository repository.CoinGeckoRepository) QuoteProviderStrategy {
	return &cryptoQuoteStrategy{coinGeckoRepository: coinGeckoRepository}
}

func (s *cryptoQuoteStrategy) Name() string { return "coingecko" }

func (s *cryptoQuoteStrategy) Supports(symbol string) bool {
	return IsCryptoSymbol(symbol)
}

func (s *cryptoQuoteStrategy) TryResolve(ctx context.Context, symbol string) (*dto.Quote, error) {
	return s.coinGeckoRepository.GetQuote(ctx, CoinID(symbol), symbol)
}
