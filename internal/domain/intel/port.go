package intel

import (
	"context"
	"errors"

	"github.com/bryanwahyu/risknet/internal/domain/entities"
)

// ErrUnavailable indicates the web-intelligence provider failed (network,
// timeout, quota or upstream error).
var ErrUnavailable = errors.New("web intelligence provider unavailable")

// EntitySummary is the minimal description handed to the provider.
type EntitySummary struct {
	Name    string        `json:"name"`
	Kind    entities.Kind `json:"kind"`
	Country string        `json:"country,omitempty"`
	Notes   string        `json:"notes,omitempty"`
}

type Result struct {
	Summary        string   `json:"summary"`
	RiskIndicators []string `json:"risk_indicators"`
	Sentiment      float64  `json:"sentiment"` // -1..1, negative is riskier
	Confidence     float64  `json:"confidence"`
	KeyFindings    []string `json:"key_findings,omitempty"`
	Provider       string   `json:"provider,omitempty"`
}

// Gatherer port (interface untuk web/LLM intelligence)
type Gatherer interface {
	Gather(ctx context.Context, subjects []EntitySummary) (*Result, error)
}
