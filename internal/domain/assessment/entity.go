package assessment

import (
	"time"

	"github.com/bryanwahyu/risknet/internal/domain/entities"
	"github.com/bryanwahyu/risknet/internal/domain/sanctions"
)

// Mode enum: fast mode trades freshness for latency (shorter gathering
// deadline, shorter cache TTL).
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeFast   Mode = "fast"
)

// RiskLevel enum
type RiskLevel string

const (
	LevelLow    RiskLevel = "LOW"
	LevelMedium RiskLevel = "MEDIUM"
	LevelHigh   RiskLevel = "HIGH"
)

// SourceStatus enum: a source that exhausted retries or the deadline is
// recorded as unavailable, never fails the whole assessment.
type SourceStatus string

const (
	SourceOK          SourceStatus = "ok"
	SourceUnavailable SourceStatus = "unavailable"
)

// SanctionsSignal is the sanctions slice of the result.
type SanctionsSignal struct {
	Status            SourceStatus     `json:"status"`
	Matched           bool             `json:"matched"`
	HighestConfidence float64          `json:"highest_confidence"`
	TotalMatches      int              `json:"total_matches"`
	Matches           []sanctions.Match `json:"matches,omitempty"`
}

// WebIntelSignal is the web/LLM intelligence slice of the result.
type WebIntelSignal struct {
	Status         SourceStatus `json:"status"`
	Summary        string       `json:"summary,omitempty"`
	RiskIndicators []string     `json:"risk_indicators,omitempty"`
	Sentiment      float64      `json:"sentiment"`
	Confidence     float64      `json:"confidence"`
	KeyFindings    []string     `json:"key_findings,omitempty"`
	Provider       string       `json:"provider,omitempty"`
}

// GraphSignal is the relationship-graph slice of the result.
type GraphSignal struct {
	Status          SourceStatus `json:"status"`
	ConnectionCount int          `json:"connection_count"`
	RiskConnections int          `json:"risk_connections"`
	MaxNeighborRisk string       `json:"max_neighbor_risk,omitempty"`
}

// ComponentScores are the 0..100 sub-scores before weighting.
type ComponentScores struct {
	Sanctions float64 `json:"sanctions"`
	WebIntel  float64 `json:"web_intelligence"`
	Graph     float64 `json:"graph_connections"`
}

// RiskFactor is one human-readable contributor to the score.
type RiskFactor struct {
	Source      string  `json:"source"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Severity    string  `json:"severity"`
}

// Aggregate Root: AssessmentResult. Immutable once produced; cached and
// persisted by Fingerprint (a stable hash of the normalized input, never the
// raw request).
type AssessmentResult struct {
	Fingerprint     string              `json:"fingerprint"`
	EntityIDs       []entities.EntityID `json:"entity_ids"`
	InputType       string              `json:"input_type"`
	Mode            Mode                `json:"mode"`
	RiskScore       int                 `json:"risk_score"`
	RiskLevel       RiskLevel           `json:"risk_level"`
	ComponentScores ComponentScores     `json:"component_scores"`
	RiskFactors     []RiskFactor        `json:"risk_factors"`
	Sanctions       SanctionsSignal     `json:"sanctions_check"`
	WebIntel        WebIntelSignal      `json:"web_intelligence"`
	Graph           GraphSignal         `json:"graph_analysis"`
	Recommendations []string            `json:"recommendations,omitempty"`
	PartialSuccess  bool                `json:"partial_success"`
	SourceFailures  []*SourceFailure    `json:"source_failures,omitempty"`
	Cached          bool                `json:"cached"`
	ReportURL       string              `json:"report_url,omitempty"`
	AssessedAt      time.Time           `json:"assessed_at"`
	DurationMS      int64               `json:"duration_ms"`
}

// UnavailableSources lists the sources that must be re-gathered before this
// result can be served as complete.
func (r *AssessmentResult) UnavailableSources() []string {
	var out []string
	if r.Sanctions.Status != SourceOK {
		out = append(out, "sanctions")
	}
	if r.WebIntel.Status != SourceOK {
		out = append(out, "web_intelligence")
	}
	if r.Graph.Status != SourceOK {
		out = append(out, "graph")
	}
	return out
}

// Summary rekap hasil assessment N hari terakhir.
type Summary struct {
	Total  int `json:"total_assessments"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// SourceFailure is one audited provider degradation event.
type SourceFailure struct {
	Fingerprint string    `json:"fingerprint"`
	Source      string    `json:"source"`
	Stage       string    `json:"stage"`
	Message     string    `json:"message"`
	OccurredAt  time.Time `json:"occurred_at"`
}
