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

// FinnhubRepository fetches equity quotes from Finnhub.
type FinnhubRepository interface {
	GetQuote(ctx context.Context, symbol string) (*dto.Quote, error)
}

type finnhubRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewFinnhubRepository creates a new FinnhubRepository.
func NewFinnhubRepository(cfg *config.Config, log *logger.Logger) FinnhubRepository {
	return &finnhubRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Quote.ProviderTimeout,
		},
		requestLimiter: newRequestLimiter(cfg.Finnhub.MaxRequestPerMinute),
	}
}

// GetQuote returns the latest quote. Finnhub answers unknown symbols with a zero price, which is passed through.
func (r *finnhubRepository) GetQuote(ctx context.Context, symbol string) (*dto.Quote, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", r.cfg.Finnhub.APIKey)
	endpoint := fmt.Sprintf("%s/quote?%s", r.cfg.Finnhub.BaseURL, q.Encode())

	var resp dto.FinnhubQuoteResponse
	if err := getJSON(ctx, r.httpClient, r.requestLimiter, r.log, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}

	updatedAt := time.Now()
	if resp.Timestamp > 0 {
		updatedAt = time.Unix(resp.Timestamp, 0)
	}

	return &dto.Quote{
		Symbol:        symbol,
		Price:         resp.Current,
		Change:        resp.Change,
		ChangePercent: resp.PercentChange,
		LastUpdatedAt: updatedAt.UTC(),
		Source:        "finnhub",
	}, nil
}
