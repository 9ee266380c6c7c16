package strategy

import (
	"context"

	"golang-market-chat/internal/chat/dto"
)

// QuoteProviderStrategy is one link of the quote fallback chain.
type QuoteProviderStrategy interface {
	// Name identifies the provider in logs.
	Name() string
	// Supports reports whether this provider handles the symbol's asset class.
	Supports(symbol string) bool
	// TryResolve returns a quote, or an error when the provider has nothing usable.
	TryResolve(ctx context.Context, symbol string) (*dto.Quote, error)
}
