package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/risknet/internal/domain/assessment"
	cachedomain "github.com/bryanwahyu/risknet/internal/domain/cache"
)

func TestPutGetDelete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, cachedomain.ErrMiss)

	in := &domain.AssessmentResult{Fingerprint: "abc", RiskScore: 42, RiskLevel: domain.LevelMedium}
	require.NoError(t, s.Put(ctx, "abc", in, time.Minute))

	out, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 42, out.RiskScore)
	assert.Equal(t, domain.LevelMedium, out.RiskLevel)

	require.NoError(t, s.Delete(ctx, "abc"))
	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, cachedomain.ErrMiss)
}

// mutating a returned result must never leak back into the cache entry
func TestGetReturnsIndependentCopy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "abc", &domain.AssessmentResult{Fingerprint: "abc", RiskScore: 42}, time.Minute))

	first, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	first.Cached = true
	first.RiskScore = 0

	second, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.Equal(t, 42, second.RiskScore)
	assert.NotSame(t, first, second)
}

func TestExpiry(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "abc", &domain.AssessmentResult{Fingerprint: "abc"}, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, cachedomain.ErrMiss)
}

func TestFlushAndStats(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", &domain.AssessmentResult{Fingerprint: "a"}, time.Minute))
	require.NoError(t, s.Put(ctx, "b", &domain.AssessmentResult{Fingerprint: "b"}, time.Minute))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, 2, stats.Entries)

	n, err := s.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
}
