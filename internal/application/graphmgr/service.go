package graphmgr

import (
	"context"

	"github.com/bryanwahyu/risknet/internal/application/resolver"
	"github.com/bryanwahyu/risknet/internal/domain/entities"
	"github.com/bryanwahyu/risknet/internal/domain/graph"
)

// Service owns all reads/writes to the relationship graph. The store handle
// is injected at construction; the service never reaches for a global
// connection.
type Service struct {
	Store graph.Store
}

func NewService(store graph.Store) *Service {
	return &Service{Store: store}
}

// Persist writes the resolved entity pair, directors, and association edges.
// All upserts are idempotent, so overlapping requests for the same logical
// entities converge without locking. riskLevel is stamped on the entity nodes
// so later graph analysis of neighbours can read it back.
func (s *Service) Persist(ctx context.Context, r *resolver.Resolved, riskLevel string) error {
	if r.Person != nil {
		r.Person.RiskLevel = riskLevel
		if err := s.Store.UpsertEntity(ctx, r.Person); err != nil {
			return err
		}
	}
	if r.Company != nil {
		r.Company.RiskLevel = riskLevel
		if err := s.Store.UpsertEntity(ctx, r.Company); err != nil {
			return err
		}
	}
	if r.Person != nil && r.Company != nil {
		if err := s.Store.UpsertEntityAssociation(ctx, r.Person.ID, r.Company.ID); err != nil {
			return err
		}
	}
	if r.Company != nil {
		for _, rd := range r.Directors {
			d := rd.Director
			id, err := s.Store.UpsertDirector(ctx, &d)
			if err != nil {
				return err
			}
			if err := s.Store.UpsertDirectorAssociation(ctx, id, r.Company.ID, rd.Attrs); err != nil {
				return err
			}
		}
	}
	return nil
}

// Relationships ambil tetangga satu hop dari sebuah entity
func (s *Service) Relationships(ctx context.Context, id entities.EntityID) (*graph.Relationships, error) {
	return s.Store.Relationships(ctx, id)
}

// CompaniesOf matches by external_director_id first, then internal id.
func (s *Service) CompaniesOf(ctx context.Context, directorKey string) ([]graph.CompanyRole, error) {
	return s.Store.CompaniesOf(ctx, directorKey)
}

// Analyze aggregates the risk of connected entities for the scorer. The
// subject may not exist yet on a first submission; that is an empty analysis,
// not an error.
func (s *Service) Analyze(ctx context.Context, ids []entities.EntityID) (*graph.Analysis, error) {
	merged := &graph.Analysis{}
	for _, id := range ids {
		a, err := s.Store.Analyze(ctx, id)
		if err != nil {
			if err == graph.ErrNotFound {
				continue
			}
			return nil, err
		}
		merged.ConnectionCount += a.ConnectionCount
		merged.RiskConnections += a.RiskConnections
		merged.Neighbors = append(merged.Neighbors, a.Neighbors...)
	}
	return merged, nil
}

// Stats untuk endpoint /api/stats
func (s *Service) Stats(ctx context.Context) (*graph.Stats, error) {
	return s.Store.Stats(ctx)
}
