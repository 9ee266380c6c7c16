package strategy

import (
	"context"
	"testing"

	"golang-market-chat/internal/chat/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockYahooFinanceRepository struct {
	mock.Mock
}

func (m *mockYahooFinanceRepository) GetQuote(ctx context.Context, symbol string) (*dto.Quote, error) {
	args := m.Called(ctx, symbol)
	q, _ := args.Get(0).(*dto.Quote)
	return q, args.Error(1)
}

type mockCoinGeckoRepository struct {
	mock.Mock
}

func (m *mockCoinGeckoRepository) GetQuote(ctx context.Context, coinID, symbol string) (*dto.Quote, error) {
	args := m.Called(ctx, coinID, symbol)
	q, _ := args.Get(0).(*dto.Quote)
	return q, args.Error(1)
}

func TestIsCryptoSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   bool
	}{
		{"BTC", true},
		{"eth", true},
		{"SOLUSDT", true},
		{"USDT", true},
		{"AAPL", false},
		{"BBCA", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsCryptoSymbol(tt.symbol), tt.symbol)
	}
}

func TestCoinID(t *testing.T) {
	assert.Equal(t, "bitcoin", CoinID("BTC"))
	assert.Equal(t, "ethereum", CoinID("ETHUSDT"))
	assert.Equal(t, "avalanche-2", CoinID("avax"))
	assert.Equal(t, "pepe", CoinID("PEPEUSDT"))
	assert.Equal(t, "tether", CoinID("USDT"))
}

func TestRegionalSymbol(t *testing.T) {
	assert.Equal(t, "BBCA.JK", RegionalSymbol("BBCA"))
	assert.Equal(t, "RELIANCE.NS", RegionalSymbol("RELIANCE"))
	assert.Equal(t, "AAPL", RegionalSymbol("AAPL"))
	assert.Equal(t, "BBCA.JK", RegionalSymbol("BBCA.JK"))
}

func TestSupports_SplitsAssetClasses(t *testing.T) {
	crypto := NewCryptoQuoteStrategy(&mockCoinGeckoRepository{})
	equities := []QuoteProviderStrategy{
		NewFinnhubQuoteStrategy(nil),
		NewYahooQuoteStrategy(&mockYahooFinanceRepository{}),
		NewPolygonQuoteStrategy(nil),
	}

	assert.True(t, crypto.Supports("BTC"))
	assert.False(t, crypto.Supports("AAPL"))
	for _, s := range equities {
		assert.True(t, s.Supports("AAPL"), s.Name())
		assert.False(t, s.Supports("ETH"), s.Name())
	}
}

func TestYahooQuoteStrategy_KeepsRequestedSymbol(t *testing.T) {
	repo := &mockYahooFinanceRepository{}
	repo.On("GetQuote", mock.Anything, "BBCA.JK").Return(&dto.Quote{Symbol: "BBCA.JK", Price: 9000, Source: "yahoo"}, nil).Once()

	q, err := NewYahooQuoteStrategy(repo).TryResolve(context.Background(), "BBCA")
	require.NoError(t, err)
	assert.Equal(t, "BBCA", q.Symbol)
	assert.Equal(t, 9000.0, q.Price)
	repo.AssertExpectations(t)
}

func TestCryptoQuoteStrategy_UsesCoinID(t *testing.T) {
	repo := &mockCoinGeckoRepository{}
	repo.On("GetQuote", mock.Anything, "solana", "SOL").Return(&dto.Quote{Symbol: "SOL", Price: 150}, nil).Once()

	q, err := NewCryptoQuoteStrategy(repo).TryResolve(context.Background(), "SOL")
	require.NoError(t, err)
	assert.Equal(t, 150.0, q.Price)
	repo.AssertExpectations(t)
}
