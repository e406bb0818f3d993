package assessment

import (
	"fmt"
	"math"

	"github.com/bryanwahyu/risknet/internal/config"
	domain "github.com/bryanwahyu/risknet/internal/domain/assessment"
	"github.com/bryanwahyu/risknet/internal/domain/graph"
	"github.com/bryanwahyu/risknet/internal/domain/intel"
	"github.com/bryanwahyu/risknet/internal/domain/sanctions"
)

// Signals are the gathered per-source results. A nil result means the source
// was abandoned and contributes zero to its sub-score.
type Signals struct {
	Sanctions *sanctions.Result
	Intel     *intel.Result
	Graph     *graph.Analysis
}

// Scorer is a pure function over any subset of sources present. Weights,
// thresholds, and floors come from config so operators can tune them without
// a rebuild.
type Scorer struct {
	cfg config.RiskConfig
}

func NewScorer(cfg config.RiskConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Scored bundles the outputs of one scoring pass.
type Scored struct {
	Score           int
	Level           domain.RiskLevel
	Components      domain.ComponentScores
	Factors         []domain.RiskFactor
	Recommendations []string
}

// Score combines the weighted sub-scores into a 0..100 total. A
// high-confidence sanctions hit dominates: it switches to sanctions-heavy
// weights and enforces a floor regardless of other signals. Increasing the
// sanctions confidence while holding the rest fixed never lowers the total.
func (sc *Scorer) Score(sig Signals) Scored {
	comp := domain.ComponentScores{
		Sanctions: sc.sanctionsSub(sig.Sanctions),
		WebIntel:  sc.intelSub(sig.Intel),
		Graph:     sc.graphSub(sig.Graph),
	}

	w := sc.cfg.Weights
	total := comp.Sanctions*w.Sanctions + comp.WebIntel*w.WebIntel + comp.Graph*w.Graph

	if comp.Sanctions >= sc.cfg.EscalateAt {
		ew := sc.cfg.EscalatedWeights
		escalated := comp.Sanctions*ew.Sanctions + comp.WebIntel*ew.WebIntel + comp.Graph*ew.Graph
		total = math.Max(total, escalated)
	}

	if sig.Sanctions != nil && sig.Sanctions.Matched {
		conf := sig.Sanctions.HighestConfidence
		if conf >= sc.cfg.Floors.CriticalConfidence {
			total = math.Max(total, float64(sc.cfg.Floors.CriticalScore))
		} else if conf >= sc.cfg.Floors.SevereConfidence {
			total = math.Max(total, float64(sc.cfg.Floors.SevereScore))
		}
	}

	score := int(math.Round(clamp(total)))
	return Scored{
		Score:           score,
		Level:           sc.level(score),
		Components:      comp,
		Factors:         sc.factors(sig, comp),
		Recommendations: sc.recommendations(sig, sc.level(score)),
	}
}

func (sc *Scorer) level(score int) domain.RiskLevel {
	switch {
	case score >= sc.cfg.Thresholds.High:
		return domain.LevelHigh
	case score >= sc.cfg.Thresholds.Medium:
		return domain.LevelMedium
	default:
		return domain.LevelLow
	}
}

func (sc *Scorer) sanctionsSub(r *sanctions.Result) float64 {
	if r == nil || !r.Matched {
		return 0
	}
	return clamp(r.HighestConfidence * 100)
}

func (sc *Scorer) intelSub(r *intel.Result) float64 {
	if r == nil {
		return 0
	}
	raw := float64(len(r.RiskIndicators)) * 15
	if r.Sentiment < 0 {
		raw += -r.Sentiment * 20
	}
	// low provider confidence discounts the signal, never inflates it
	raw *= 0.5 + 0.5*clampUnit(r.Confidence)
	return clamp(raw)
}

// graphSub inherits risk from neighbours with decay per hop: a directly
// connected HIGH entity contributes half of a direct hit, a co-director link
// a quarter.
func (sc *Scorer) graphSub(a *graph.Analysis) float64 {
	if a == nil {
		return 0
	}
	var sub float64
	for _, n := range a.Neighbors {
		base := levelScore(n.RiskLevel)
		hop := n.Distance
		if hop < 1 {
			hop = 1
		}
		decayed := base / math.Pow(2, float64(hop))
		if decayed > sub {
			sub = decayed
		}
	}
	sub += math.Min(float64(a.RiskConnections)*5, 20)
	return clamp(sub)
}

func levelScore(level string) float64 {
	switch domain.RiskLevel(level) {
	case domain.LevelHigh:
		return 100
	case domain.LevelMedium:
		return 50
	case domain.LevelLow:
		return 10
	default:
		return 0
	}
}

func (sc *Scorer) factors(sig Signals, comp domain.ComponentScores) []domain.RiskFactor {
	var out []domain.RiskFactor
	if sig.Sanctions != nil && sig.Sanctions.Matched {
		for _, m := range sig.Sanctions.Matches {
			out = append(out, domain.RiskFactor{
				Source:      "sanctions",
				Type:        m.Type,
				Description: fmt.Sprintf("sanctions match: %s", m.Name),
				Confidence:  m.Confidence,
				Severity:    severityFor(m.Confidence * 100),
			})
		}
	}
	if sig.Intel != nil {
		for _, ind := range sig.Intel.RiskIndicators {
			out = append(out, domain.RiskFactor{
				Source:      "web_intelligence",
				Type:        ind,
				Description: fmt.Sprintf("adverse media indicator: %s", ind),
				Confidence:  sig.Intel.Confidence,
				Severity:    severityFor(comp.WebIntel),
			})
		}
	}
	if sig.Graph != nil && sig.Graph.RiskConnections > 0 {
		out = append(out, domain.RiskFactor{
			Source:      "graph",
			Type:        "risk_connections",
			Description: fmt.Sprintf("%d connected entities carry elevated risk", sig.Graph.RiskConnections),
			Confidence:  1,
			Severity:    severityFor(comp.Graph),
		})
	}
	return out
}

func severityFor(sub float64) string {
	switch {
	case sub >= 80:
		return "critical"
	case sub >= 50:
		return "high"
	case sub >= 25:
		return "medium"
	default:
		return "low"
	}
}

func (sc *Scorer) recommendations(sig Signals, level domain.RiskLevel) []string {
	var out []string
	switch level {
	case domain.LevelHigh:
		out = append(out, "Enhanced due diligence required before onboarding")
	case domain.LevelMedium:
		out = append(out, "Additional verification of identity documents recommended")
	default:
		out = append(out, "Standard onboarding checks are sufficient")
	}
	if sig.Sanctions != nil && sig.Sanctions.Matched {
		out = append(out, "Escalate to compliance: potential sanctions exposure")
	}
	if sig.Graph != nil && sig.Graph.RiskConnections > 0 {
		out = append(out, "Review connected entities flagged as elevated risk")
	}
	return out
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
