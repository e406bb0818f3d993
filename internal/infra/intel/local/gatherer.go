package local

import (
	"context"
	"sort"
	"strings"

	"github.com/bryanwahyu/risknet/internal/domain/intel"
	"github.com/bryanwahyu/risknet/internal/infra/intel/prompt"
)

// Gatherer is the offline fallback when no LLM is configured. It scans the
// subject notes against the keyword taxonomy. Deterministic and cheap, but
// low confidence: it only sees what the caller already submitted.
type Gatherer struct{}

func NewGatherer() *Gatherer { return &Gatherer{} }

func (g *Gatherer) Gather(_ context.Context, subjects []intel.EntitySummary) (*intel.Result, error) {
	var (
		indicators []string
		findings   []string
		seen       = map[string]bool{}
	)
	categories := make([]string, 0, len(prompt.RiskKeywords))
	for c := range prompt.RiskKeywords {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, s := range subjects {
		text := strings.ToLower(s.Name + " " + s.Notes)
		for _, category := range categories {
			if seen[category] {
				continue
			}
			for _, w := range prompt.RiskKeywords[category] {
				if strings.Contains(text, w) {
					indicators = append(indicators, category)
					findings = append(findings, "keyword match ("+category+") for "+s.Name)
					seen[category] = true
					break
				}
			}
		}
	}

	sentiment := 0.0
	if len(indicators) > 0 {
		sentiment = -0.5
	}
	return &intel.Result{
		Summary:        "offline keyword screening only, no external sources consulted",
		RiskIndicators: indicators,
		Sentiment:      sentiment,
		Confidence:     0.3,
		KeyFindings:    findings,
		Provider:       "local/keywords",
	}, nil
}
