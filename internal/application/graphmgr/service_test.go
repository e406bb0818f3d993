package graphmgr

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/risknet/internal/application/resolver"
	"github.com/bryanwahyu/risknet/internal/domain/entities"
	"github.com/bryanwahyu/risknet/internal/domain/graph"
)

// memStore mirrors the idempotent keyed-upsert semantics of the SQL store.
type memStore struct {
	mu           sync.Mutex
	entities     map[entities.EntityID]*entities.Entity
	directors    map[entities.DirectorID]*entities.Director
	byExternal   map[string]entities.DirectorID
	directorEdge map[[2]string]graph.AssociationAttrs
	entityEdge   map[[2]string]bool
}

func newMemStore() *memStore {
	return &memStore{
		entities:     map[entities.EntityID]*entities.Entity{},
		directors:    map[entities.DirectorID]*entities.Director{},
		byExternal:   map[string]entities.DirectorID{},
		directorEdge: map[[2]string]graph.AssociationAttrs{},
		entityEdge:   map[[2]string]bool{},
	}
}

func (s *memStore) UpsertEntity(ctx context.Context, e *entities.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.entities[e.ID] = &cp
	return nil
}

func (s *memStore) UpsertDirector(ctx context.Context, d *entities.Director) (entities.DirectorID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ExternalID != "" {
		if id, ok := s.byExternal[d.ExternalID]; ok {
			return id, nil
		}
		s.byExternal[d.ExternalID] = d.ID
	}
	cp := *d
	s.directors[d.ID] = &cp
	return d.ID, nil
}

func (s *memStore) UpsertDirectorAssociation(ctx context.Context, directorID entities.DirectorID, companyID entities.EntityID, attrs graph.AssociationAttrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directorEdge[[2]string{string(directorID), string(companyID)}] = attrs
	return nil
}

func (s *memStore) UpsertEntityAssociation(ctx context.Context, personID, companyID entities.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entityEdge[[2]string{string(personID), string(companyID)}] = true
	return nil
}

func (s *memStore) GetEntity(ctx context.Context, id entities.EntityID) (*entities.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return nil, graph.ErrNotFound
	}
	return e, nil
}

func (s *memStore) Relationships(ctx context.Context, id entities.EntityID) (*graph.Relationships, error) {
	return nil, graph.ErrNotFound
}

func (s *memStore) CompaniesOf(ctx context.Context, key string) ([]graph.CompanyRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byExternal[key]
	if !ok {
		id = entities.DirectorID(key)
	}
	var out []graph.CompanyRole
	for edge, attrs := range s.directorEdge {
		if edge[0] != string(id) {
			continue
		}
		company := s.entities[entities.EntityID(edge[1])]
		role := graph.CompanyRole{Position: attrs.Position}
		if company != nil {
			role.Company = *company
		}
		out = append(out, role)
	}
	if len(out) == 0 {
		return nil, graph.ErrNotFound
	}
	return out, nil
}

func (s *memStore) Analyze(ctx context.Context, id entities.EntityID) (*graph.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[id]; !ok {
		return nil, graph.ErrNotFound
	}
	a := &graph.Analysis{}
	for edge := range s.entityEdge {
		if edge[0] == string(id) || edge[1] == string(id) {
			a.ConnectionCount++
		}
	}
	return a, nil
}

func (s *memStore) Stats(ctx context.Context) (*graph.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &graph.Stats{
		Entities:  len(s.entities),
		Directors: len(s.directors),
		Edges:     len(s.directorEdge) + len(s.entityEdge),
	}, nil
}

func resolve(t *testing.T, body string) *resolver.Resolved {
	t.Helper()
	r, err := resolver.NewService().Resolve([]byte(body))
	require.NoError(t, err)
	return r
}

func TestPersistCreatesNodesAndEdges(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	resolved := resolve(t, `{
		"person": {"name": "John Smith", "phone": "+1-555-0123", "country": "US"},
		"company": {"name": "Acme Corp", "country": "US", "directors": [
			{"director_id": "DIR001", "name": "Jane Doe", "position": "CEO"}
		]}
	}`)
	require.NoError(t, svc.Persist(context.Background(), resolved, "LOW"))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entities)
	assert.Equal(t, 1, stats.Directors)
	// one person-company edge, one director-company edge
	assert.Equal(t, 2, stats.Edges)
}

func TestPersistIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	body := `{
		"person": {"name": "John Smith", "phone": "+1-555-0123", "country": "US"},
		"company": {"name": "Acme Corp", "country": "US", "directors": [
			{"director_id": "DIR001", "name": "Jane Doe"}
		]}
	}`

	require.NoError(t, svc.Persist(context.Background(), resolve(t, body), "LOW"))
	require.NoError(t, svc.Persist(context.Background(), resolve(t, body), "LOW"))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entities)
	assert.Equal(t, 1, stats.Directors)
	assert.Equal(t, 2, stats.Edges)
}

// the same external director submitted twice under two companies yields
// exactly one edge per company
func TestSameDirectorAcrossCompanies(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	acme := `{"company": {"name": "Acme Corp", "country": "US", "directors": [{"director_id": "DIR001", "name": "Jane Doe"}]}}`
	globex := `{"company": {"name": "Globex Ltd", "country": "GB", "directors": [{"director_id": "DIR001", "name": "Jane Doe"}]}}`

	for _, body := range []string{acme, globex, acme, globex} {
		require.NoError(t, svc.Persist(context.Background(), resolve(t, body), "LOW"))
	}

	companies, err := svc.CompaniesOf(context.Background(), "DIR001")
	require.NoError(t, err)
	assert.Len(t, companies, 2)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Directors)
}

func TestAnalyzeSkipsUnknownSubjects(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	a, err := svc.Analyze(context.Background(), []entities.EntityID{"person_nothere"})
	require.NoError(t, err)
	assert.Equal(t, 0, a.ConnectionCount)
}

func TestAnalyzeCountsAssociations(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	resolved := resolve(t, `{
		"person": {"name": "John Smith", "phone": "+1-555-0123", "country": "US"},
		"company": {"name": "Acme Corp", "country": "US"}
	}`)
	require.NoError(t, svc.Persist(context.Background(), resolved, "HIGH"))

	a, err := svc.Analyze(context.Background(), []entities.EntityID{resolved.Person.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, a.ConnectionCount)
}
