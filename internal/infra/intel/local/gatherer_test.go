package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/risknet/internal/domain/intel"
)

func TestGatherCleanSubject(t *testing.T) {
	g := NewGatherer()
	res, err := g.Gather(context.Background(), []intel.EntitySummary{
		{Name: "John Smith", Kind: "person", Country: "US"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.RiskIndicators)
	assert.Equal(t, 0.0, res.Sentiment)
	assert.Equal(t, "local/keywords", res.Provider)
}

func TestGatherKeywordHits(t *testing.T) {
	g := NewGatherer()
	res, err := g.Gather(context.Background(), []intel.EntitySummary{
		{Name: "Acme Corp", Kind: "company", Notes: "subject of a money laundering probe and bribery allegations"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.RiskIndicators, "money_laundering")
	assert.Contains(t, res.RiskIndicators, "investigation")
	assert.Contains(t, res.RiskIndicators, "corruption")
	assert.Negative(t, res.Sentiment)
	assert.NotEmpty(t, res.KeyFindings)
}

// category order is stable across runs: per subject, alphabetical
func TestGatherIndicatorOrderIsStable(t *testing.T) {
	g := NewGatherer()
	res, err := g.Gather(context.Background(), []intel.EntitySummary{
		{Name: "Acme Corp", Notes: "money laundering probe and bribery allegations"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"corruption", "investigation", "money_laundering"}, res.RiskIndicators)
}

func TestGatherDeduplicatesCategories(t *testing.T) {
	g := NewGatherer()
	res, err := g.Gather(context.Background(), []intel.EntitySummary{
		{Name: "A", Notes: "fraud"},
		{Name: "B", Notes: "convicted of fraud"},
	})
	require.NoError(t, err)
	count := 0
	for _, ind := range res.RiskIndicators {
		if ind == "criminal" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
