package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang-market-chat/internal/chat/config"
	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/pkg/logger"

	polygonrest "github.com/polygon-io/client-go/rest"
	rmodels "github.com/polygon-io/client-go/rest/models"
	"golang.org/x/time/rate"
)

// PolygonRepository fetches equity quotes from Polygon daily aggregates.
type PolygonRepository interface {
	GetQuote(ctx context.Context, symbol string) (*dto.Quote, error)
}

type polygonRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	rest           *polygonrest.Client
	requestLimiter *rate.Limiter
	now            func() time.Time
}

// NewPolygonRepository creates a new PolygonRepository.
func NewPolygonRepository(cfg *config.Config, log *logger.Logger) PolygonRepository {
	return &polygonRepository{
		cfg:            cfg,
		log:            log,
		rest:           polygonrest.NewWithClient(cfg.Polygon.APIKey, &http.Client{Timeout: cfg.Quote.ProviderTimeout}),
		requestLimiter: newRequestLimiter(cfg.Polygon.MaxRequestPerMinute),
		now:            time.Now,
	}
}

// GetQuote uses the two most recent daily bars: the latest close is the price,
// the one before it is the reference for the change.
func (r *polygonRepository) GetQuote(ctx context.Context, symbol string) (*dto.Quote, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	now := r.now()
	params := &rmodels.ListAggsParams{
		Ticker:     symbol,
		Timespan:   rmodels.Day,
		Multiplier: 1,
		From:       rmodels.Millis(now.AddDate(0, 0, -7)),
		To:         rmodels.Millis(now),
	}
	limit := 10
	order := rmodels.Asc
	adjusted := true
	params.Limit = &limit
	params.Order = &order
	params.Adjusted = &adjusted

	var bars []rmodels.Agg
	iter := r.rest.ListAggs(ctx, params)
	for iter.Next() {
		bars = append(bars, iter.Item())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("polygon aggs %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("polygon aggs %s: %w", symbol, ErrQuoteNotFound)
	}

	last := bars[len(bars)-1]
	quote := &dto.Quote{
		Symbol:        symbol,
		Price:         last.Close,
		Volume:        last.Volume,
		LastUpdatedAt: time.Time(last.Timestamp).UTC(),
		Source:        "polygon",
	}
	if len(bars) > 1 {
		prevClose := bars[len(bars)-2].Close
		if prevClose > 0 {
			quote.Change = last.Close - prevClose
			quote.ChangePercent = quote.Change / prevClose * 100
		}
	}

	r.log.DebugContext(ctx, "Polygon quote resolved", logger.StringField("symbol", symbol), logger.IntField("bars", len(bars)))
	return quote, nil
}
