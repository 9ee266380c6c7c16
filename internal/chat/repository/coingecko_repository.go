package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang-market-chat/internal/chat/config"
	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/pkg/logger"

	"golang.org/x/time/rate"
)

// CoinGeckoRepository fetches crypto prices from CoinGecko.
type CoinGeckoRepository interface {
	GetQuote(ctx context.Context, coinID, symbol string) (*dto.Quote, error)
}

type coinGeckoRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewCoinGeckoRepository creates a new CoinGeckoRepository.
func NewCoinGeckoRepository(cfg *config.Config, log *logger.Logger) CoinGeckoRepository {
	return &coinGeckoRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Quote.ProviderTimeout,
		},
		requestLimiter: newRequestLimiter(cfg.CoinGecko.MaxRequestPerMinute),
	}
}

// GetQuote returns the USD price of coinID. CoinGecko only reports a 24h percent
// change, so the absolute change is derived from it.
func (r *coinGeckoRepository) GetQuote(ctx context.Context, coinID, symbol string) (*dto.Quote, error) {
	q := url.Values{}
	q.Set("ids", coinID)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	q.Set("include_24hr_vol", "true")
	q.Set("include_last_updated_at", "true")
	endpoint := fmt.Sprintf("%s/simple/price?%s", r.cfg.CoinGecko.BaseURL, q.Encode())

	var headers map[string]string
	if r.cfg.CoinGecko.APIKey != "" {
		headers = map[string]string{"x-cg-demo-api-key": r.cfg.CoinGecko.APIKey}
	}

	resp := map[string]dto.CoinGeckoPrice{}
	if err := getJSON(ctx, r.httpClient, r.requestLimiter, r.log, endpoint, headers, &resp); err != nil {
		return nil, fmt.Errorf("coingecko price %s: %w", coinID, err)
	}

	price, ok := resp[coinID]
	if !ok {
		return nil, fmt.Errorf("coingecko price %s: %w", coinID, ErrQuoteNotFound)
	}

	updatedAt := time.Now()
	if price.LastUpdatedAt > 0 {
		updatedAt = time.Unix(price.LastUpdatedAt, 0)
	}

	return &dto.Quote{
		Symbol:        symbol,
		Price:         price.USD,
		Change:        price.USD * price.USD24hChange / 100,
		ChangePercent: price.USD24hChange,
		Volume:        price.USD24hVol,
		LastUpdatedAt: updatedAt.UTC(),
		Source:        "coingecko",
	}, nil
}
