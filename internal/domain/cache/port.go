package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bryanwahyu/risknet/internal/domain/assessment"
)

// ErrMiss is returned when no entry exists for the fingerprint.
var ErrMiss = errors.New("cache miss")

// Stats for the cache section of /api/stats.
type Stats struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
}

// Store port (interface untuk result caching). Keys are fingerprints; entries
// expire after the mode's TTL. A hit with unavailable sources is still
// returned so the orchestrator can re-gather only the failed ones.
type Store interface {
	Get(ctx context.Context, fingerprint string) (*assessment.AssessmentResult, error)
	Put(ctx context.Context, fingerprint string, r *assessment.AssessmentResult, ttl time.Duration) error
	Delete(ctx context.Context, fingerprint string) error
	Flush(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*Stats, error)
}
