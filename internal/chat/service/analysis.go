package service

import (
	"math"
	"regexp"
	"strings"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/internal/chat/strategy"
)

// sectorBySymbol is a coarse, static classification for well-known symbols.
var sectorBySymbol = map[string]string{
	"AAPL":  "Technology",
	"MSFT":  "Technology",
	"GOOGL": "Communication Services",
	"GOOG":  "Communication Services",
	"META":  "Communication Services",
	"NFLX":  "Communication Services",
	"DIS":   "Communication Services",
	"AMZN":  "Consumer Discretionary",
	"TSLA":  "Consumer Discretionary",
	"WMT":   "Consumer Staples",
	"NVDA":  "Semiconductors",
	"AMD":   "Semiconductors",
	"INTC":  "Semiconductors",
	"JPM":   "Financials",
	"COIN":  "Financials",
	"PLTR":  "Technology",
	"SPY":   "Index",
	"QQQ":   "Index",
}

// BuildAnalysisSummary builds the structured annotation attached to elevated-mode
// answers. It runs before the model answers, so sentiment is always neutral.
// quotes may contain nil entries for symbols that could not be resolved.
func BuildAnalysisSummary(symbols []string, quotes []*dto.Quote) *dto.AnalysisSummary {
	if len(symbols) == 0 {
		return nil
	}

	resolved := 0
	maxMove := 0.0
	for _, q := range quotes {
		if q == nil {
			continue
		}
		resolved++
		maxMove = math.Max(maxMove, math.Abs(q.ChangePercent))
	}

	sectors := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		sector, ok := sectorBySymbol[s]
		if !ok && strategy.IsCryptoSymbol(s) {
			sector, ok = "Digital Assets", true
		}
		if !ok {
			continue
		}
		if _, dup := seen[sector]; dup {
			continue
		}
		seen[sector] = struct{}{}
		sectors = append(sectors, sector)
	}

	return &dto.AnalysisSummary{
		Sentiment:     dto.SentimentNeutral,
		ImpactScore:   impactScore(maxMove),
		Confidence:    math.Round(float64(resolved)/float64(len(symbols))*100) / 100,
		Symbol:        symbols[0],
		Symbols:       append([]string(nil), symbols...),
		Sectors:       sectors,
		Risks:         []string{},
		Opportunities: []string{},
	}
}

// impactScore maps the largest absolute daily move onto 0-100, saturating at 10%.
func impactScore(changePercent float64) int {
	score := int(math.Round(changePercent * 10))
	if score > 100 {
		return 100
	}
	return score
}

var wordPattern = regexp.MustCompile(`[a-z]+`)

var (
	bullishWords = toSet("bullish", "rally", "rallies", "surge", "surges", "gain", "gains", "upside", "outperform", "breakout", "uptrend", "growth", "buy", "beat", "strong", "higher")
	bearishWords = toSet("bearish", "selloff", "decline", "declines", "drop", "drops", "downside", "underperform", "breakdown", "downtrend", "recession", "sell", "miss", "weak", "lower", "plunge")
)

// DeriveSentiment classifies a completed answer by counting bullish and bearish terms.
func DeriveSentiment(text string) string {
	bull, bear := 0, 0
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, ok := bullishWords[w]; ok {
			bull++
		}
		if _, ok := bearishWords[w]; ok {
			bear++
		}
	}
	switch {
	case bull > bear:
		return dto.SentimentBullish
	case bear > bull:
		return dto.SentimentBearish
	default:
		return dto.SentimentNeutral
	}
}
