package graph

import (
	"context"
	"errors"

	"github.com/bryanwahyu/risknet/internal/domain/entities"
)

// ErrUnavailable indicates the graph store could not serve the request.
var ErrUnavailable = errors.New("graph store unavailable")

// ErrNotFound is returned when the requested node does not exist.
var ErrNotFound = errors.New("not found in graph")

// Store port (interface untuk graph persistence). All upserts are idempotent,
// keyed by the deterministic ids: calling them twice with the same logical
// content is a no-op beyond attribute refresh.
type Store interface {
	UpsertEntity(ctx context.Context, e *entities.Entity) error
	// UpsertDirector matches by ExternalID when present, falling back to ID,
	// and returns the canonical id of the stored node.
	UpsertDirector(ctx context.Context, d *entities.Director) (entities.DirectorID, error)
	UpsertDirectorAssociation(ctx context.Context, directorID entities.DirectorID, companyID entities.EntityID, attrs AssociationAttrs) error
	UpsertEntityAssociation(ctx context.Context, personID, companyID entities.EntityID) error

	GetEntity(ctx context.Context, id entities.EntityID) (*entities.Entity, error)
	Relationships(ctx context.Context, id entities.EntityID) (*Relationships, error)
	// CompaniesOf matches by external_director_id first, then internal id.
	CompaniesOf(ctx context.Context, directorKey string) ([]CompanyRole, error)
	Analyze(ctx context.Context, id entities.EntityID) (*Analysis, error)
	Stats(ctx context.Context) (*Stats, error)
}
