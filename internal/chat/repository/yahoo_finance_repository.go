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

// YahooFinanceRepository fetches quotes from the Yahoo Finance chart API.
type YahooFinanceRepository interface {
	GetQuote(ctx context.Context, symbol string) (*dto.Quote, error)
}

type yahooFinanceRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewYahooFinanceRepository creates a new YahooFinanceRepository.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) YahooFinanceRepository {
	return &yahooFinanceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Quote.ProviderTimeout,
		},
		requestLimiter: newRequestLimiter(cfg.YahooFinance.MaxRequestPerMinute),
	}
}

// GetQuote returns the regular-market quote for a Yahoo symbol (which may carry an exchange suffix).
func (r *yahooFinanceRepository) GetQuote(ctx context.Context, symbol string) (*dto.Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", r.cfg.YahooFinance.BaseURL, url.PathEscape(symbol))

	var resp dto.YahooChartResponse
	if err := getJSON(ctx, r.httpClient, r.requestLimiter, r.log, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s: %w", symbol, resp.Chart.Error.Description, ErrQuoteNotFound)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, ErrQuoteNotFound)
	}

	meta := resp.Chart.Result[0].Meta
	prevClose := meta.ChartPreviousClose
	if prevClose == 0 {
		prevClose = meta.PreviousClose
	}

	var change, changePercent float64
	if prevClose > 0 {
		change = meta.RegularMarketPrice - prevClose
		changePercent = change / prevClose * 100
	}

	updatedAt := time.Now()
	if meta.RegularMarketTime > 0 {
		updatedAt = time.Unix(meta.RegularMarketTime, 0)
	}

	return &dto.Quote{
		Symbol:        symbol,
		Price:         meta.RegularMarketPrice,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        meta.RegularMarketVolume,
		LastUpdatedAt: updatedAt.UTC(),
		Source:        "yahoo",
	}, nil
}
