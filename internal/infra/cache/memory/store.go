package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	domain "github.com/bryanwahyu/risknet/internal/domain/assessment"
	cachedomain "github.com/bryanwahyu/risknet/internal/domain/cache"
)

// Store implements cache.Store in process memory. Used when Redis is not
// configured; correctness never depends on the cache surviving a restart.
type Store struct {
	c *gocache.Cache
}

func NewStore() *Store {
	return &Store{c: gocache.New(time.Hour, 10*time.Minute)}
}

func (s *Store) Get(_ context.Context, fingerprint string) (*domain.AssessmentResult, error) {
	v, ok := s.c.Get(fingerprint)
	if !ok {
		return nil, cachedomain.ErrMiss
	}
	r, ok := v.(*domain.AssessmentResult)
	if !ok {
		s.c.Delete(fingerprint)
		return nil, cachedomain.ErrMiss
	}
	// callers own and may mutate their result; never hand out the stored pointer
	cp := *r
	return &cp, nil
}

func (s *Store) Put(_ context.Context, fingerprint string, r *domain.AssessmentResult, ttl time.Duration) error {
	cp := *r
	s.c.Set(fingerprint, &cp, ttl)
	return nil
}

func (s *Store) Delete(_ context.Context, fingerprint string) error {
	s.c.Delete(fingerprint)
	return nil
}

func (s *Store) Flush(_ context.Context) (int, error) {
	n := s.c.ItemCount()
	s.c.Flush()
	return n, nil
}

func (s *Store) Stats(_ context.Context) (*cachedomain.Stats, error) {
	return &cachedomain.Stats{Backend: "memory", Entries: s.c.ItemCount()}, nil
}
