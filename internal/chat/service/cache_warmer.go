package service

import (
	"context"
	"fmt"
	"strings"

	"golang-market-chat/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CacheWarmer periodically refreshes quotes for frequently asked symbols so
// that requests for them are served from cache.
type CacheWarmer interface {
	Start(ctx context.Context) error
	Warm(ctx context.Context) int
}

type cacheWarmer struct {
	resolver QuoteResolver
	symbols  []string
	schedule string
	logger   *logger.Logger
	cron     *cron.Cron
}

// NewCacheWarmer creates a CacheWarmer for symbols on the given cron schedule.
func NewCacheWarmer(resolver QuoteResolver, symbols []string, schedule string, log *logger.Logger) CacheWarmer {
	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			normalized = append(normalized, s)
		}
	}

	return &cacheWarmer{
		resolver: resolver,
		symbols:  normalized,
		schedule: schedule,
		logger:   log,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
	}
}

// Start warms once, then on every tick of the schedule until ctx is done.
func (w *cacheWarmer) Start(ctx context.Context) error {
	if len(w.symbols) == 0 {
		w.logger.Info("No warm symbols configured, cache warmer disabled")
		return nil
	}

	if _, err := w.cron.AddFunc(w.schedule, func() { w.Warm(ctx) }); err != nil {
		return fmt.Errorf("invalid warm schedule %q: %w", w.schedule, err)
	}

	w.Warm(ctx)
	w.cron.Start()
	w.logger.Info("Quote cache warmer started", logger.StringField("schedule", w.schedule), logger.Field("symbols", w.symbols))

	<-ctx.Done()
	<-w.cron.Stop().Done()
	w.logger.Info("Quote cache warmer stopped")
	return nil
}

// Warm refreshes every configured symbol and returns how many resolved.
func (w *cacheWarmer) Warm(ctx context.Context) int {
	resolved := 0
	for _, symbol := range w.symbols {
		if ctx.Err() != nil {
			break
		}
		if w.resolver.Refresh(ctx, symbol) != nil {
			resolved++
		}
	}
	w.logger.Debug("Quote cache warmed", logger.IntField("resolved", resolved), logger.IntField("total", len(w.symbols)))
	return resolved
}
