package sanctions

import (
	"context"
	"errors"

	"github.com/bryanwahyu/risknet/internal/domain/entities"
)

// ErrUnavailable indicates the sanctions provider could not be reached
// (network error, timeout or upstream 5xx).
var ErrUnavailable = errors.New("sanctions provider unavailable")

// Match is a single scored candidate from the sanctions registry.
type Match struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"` // 0..1
	Topics     []string `json:"topics,omitempty"`
	Datasets   []string `json:"datasets,omitempty"`
	Type       string   `json:"type,omitempty"`
}

type Result struct {
	Matched           bool    `json:"matched"`
	Matches           []Match `json:"matches"`
	TotalMatches      int     `json:"total_matches"`
	HighestConfidence float64 `json:"highest_confidence"`
}

// Checker port (interface untuk sanctions lookup)
type Checker interface {
	Check(ctx context.Context, name, country string, kind entities.Kind) (*Result, error)
}
