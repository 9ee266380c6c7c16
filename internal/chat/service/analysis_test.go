package service

import (
	"testing"

	"golang-market-chat/internal/chat/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAnalysisSummary(t *testing.T) {
	quotes := []*dto.Quote{
		{Symbol: "AAPL", Price: 190, ChangePercent: -2.34},
		nil,
		{Symbol: "MSFT", Price: 410, ChangePercent: 0.5},
	}

	summary := BuildAnalysisSummary([]string{"AAPL", "NVDA", "MSFT", "BTC"}, quotes)

	require.NotNil(t, summary)
	assert.Equal(t, dto.SentimentNeutral, summary.Sentiment)
	assert.Equal(t, "AAPL", summary.Symbol)
	assert.Equal(t, []string{"AAPL", "NVDA", "MSFT", "BTC"}, summary.Symbols)
	assert.Equal(t, []string{"Technology", "Semiconductors", "Digital Assets"}, summary.Sectors)
	assert.Equal(t, 23, summary.ImpactScore)
	assert.Equal(t, 0.5, summary.Confidence)
	assert.NotNil(t, summary.Risks)
	assert.NotNil(t, summary.Opportunities)
}

func TestBuildAnalysisSummary_NoSymbols(t *testing.T) {
	assert.Nil(t, BuildAnalysisSummary(nil, nil))
}

func TestBuildAnalysisSummary_UnresolvedSymbolStillListed(t *testing.T) {
	summary := BuildAnalysisSummary([]string{"ZZZZ"}, []*dto.Quote{nil})

	require.NotNil(t, summary)
	assert.Equal(t, []string{"ZZZZ"}, summary.Symbols)
	assert.Equal(t, 0, summary.ImpactScore)
	assert.Equal(t, 0.0, summary.Confidence)
	assert.Empty(t, summary.Sectors)
}

func TestImpactScoreSaturates(t *testing.T) {
	assert.Equal(t, 100, impactScore(14.2))
	assert.Equal(t, 0, impactScore(0))
}

func TestDeriveSentiment(t *testing.T) {
	assert.Equal(t, dto.SentimentBullish, DeriveSentiment("Strong earnings beat; the rally could extend with more upside."))
	assert.Equal(t, dto.SentimentBearish, DeriveSentiment("Expect a further decline, downside risk and weak guidance."))
	assert.Equal(t, dto.SentimentNeutral, DeriveSentiment("The company reports on Thursday."))
}
