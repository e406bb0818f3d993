package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/risknet/internal/application"
	appassess "github.com/bryanwahyu/risknet/internal/application/assessment"
	"github.com/bryanwahyu/risknet/internal/application/graphmgr"
	"github.com/bryanwahyu/risknet/internal/application/resolver"
	"github.com/bryanwahyu/risknet/internal/config"
	"github.com/bryanwahyu/risknet/internal/domain/entities"
	"github.com/bryanwahyu/risknet/internal/domain/graph"
	"github.com/bryanwahyu/risknet/internal/domain/intel"
	"github.com/bryanwahyu/risknet/internal/domain/sanctions"
	memcache "github.com/bryanwahyu/risknet/internal/infra/cache/memory"
)

type stubChecker struct{}

func (stubChecker) Check(ctx context.Context, name, country string, kind entities.Kind) (*sanctions.Result, error) {
	return &sanctions.Result{Matched: false}, nil
}

type stubGatherer struct{}

func (stubGatherer) Gather(ctx context.Context, subjects []intel.EntitySummary) (*intel.Result, error) {
	return &intel.Result{Sentiment: 0, Confidence: 0.9, Provider: "stub"}, nil
}

// stubGraphStore holds entities in a map; traversal queries return not-found.
type stubGraphStore struct {
	nodes map[entities.EntityID]*entities.Entity
}

func newStubGraphStore() *stubGraphStore {
	return &stubGraphStore{nodes: map[entities.EntityID]*entities.Entity{}}
}

func (s *stubGraphStore) UpsertEntity(ctx context.Context, e *entities.Entity) error {
	cp := *e
	s.nodes[e.ID] = &cp
	return nil
}

func (s *stubGraphStore) UpsertDirector(ctx context.Context, d *entities.Director) (entities.DirectorID, error) {
	return d.ID, nil
}

func (s *stubGraphStore) UpsertDirectorAssociation(ctx context.Context, directorID entities.DirectorID, companyID entities.EntityID, attrs graph.AssociationAttrs) error {
	return nil
}

func (s *stubGraphStore) UpsertEntityAssociation(ctx context.Context, personID, companyID entities.EntityID) error {
	return nil
}

func (s *stubGraphStore) GetEntity(ctx context.Context, id entities.EntityID) (*entities.Entity, error) {
	e, ok := s.nodes[id]
	if !ok {
		return nil, graph.ErrNotFound
	}
	return e, nil
}

func (s *stubGraphStore) Relationships(ctx context.Context, id entities.EntityID) (*graph.Relationships, error) {
	e, err := s.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	return &graph.Relationships{Entity: *e}, nil
}

func (s *stubGraphStore) CompaniesOf(ctx context.Context, key string) ([]graph.CompanyRole, error) {
	return nil, graph.ErrNotFound
}

func (s *stubGraphStore) Analyze(ctx context.Context, id entities.EntityID) (*graph.Analysis, error) {
	if _, ok := s.nodes[id]; !ok {
		return nil, graph.ErrNotFound
	}
	return &graph.Analysis{}, nil
}

func (s *stubGraphStore) Stats(ctx context.Context) (*graph.Stats, error) {
	return &graph.Stats{Entities: len(s.nodes)}, nil
}

func newTestRouter() http.Handler {
	profile := config.ModeProfile{
		GatherTimeout: 2 * time.Second,
		SourceRetries: 0,
		RetryBackoff:  time.Millisecond,
		CacheTTL:      time.Minute,
	}
	cache := memcache.NewStore()
	graphSvc := graphmgr.NewService(newStubGraphStore())
	svc := &appassess.Service{
		Resolver:      resolver.NewService(),
		Sanctions:     stubChecker{},
		Intel:         stubGatherer{},
		Graph:         graphSvc,
		Cache:         cache,
		Scorer:        appassess.NewScorer(config.Defaults().Risk),
		Clock:         application.SystemClock{},
		NormalProfile: profile,
		FastProfile:   profile,
	}
	return NewRouter(svc, graphSvc, cache)
}

func TestCheckRiskEndpoint(t *testing.T) {
	h := newTestRouter()
	body := `{"person": {"name": "John Smith", "phone": "+1-555-0123", "country": "US"}}`

	req := httptest.NewRequest(http.MethodPost, "/api/check_risk", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "LOW", out["risk_level"])
	assert.NotEmpty(t, out["fingerprint"])
}

func TestCheckRiskValidationReturns400(t *testing.T) {
	h := newTestRouter()
	body := `{"person": {"phone": "+1-555-0123"}}`

	req := httptest.NewRequest(http.MethodPost, "/api/check_risk", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "name", out["field"])
}

func TestCheckRiskRejectsUnknownMode(t *testing.T) {
	h := newTestRouter()
	body := `{"person": {"name": "John Smith", "phone": "+1-555-0123"}}`

	req := httptest.NewRequest(http.MethodPost, "/api/check_risk?mode=turbo", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRelationshipsNotFound(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/entity/person_missing/relationships", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRelationshipsAfterAssessment(t *testing.T) {
	h := newTestRouter()
	body := `{"person": {"name": "John Smith", "phone": "+1-555-0123", "country": "US"}}`

	req := httptest.NewRequest(http.MethodPost, "/api/check_risk", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		EntityIDs []string `json:"entity_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.EntityIDs, 1)

	req = httptest.NewRequest(http.MethodGet, "/api/entity/"+out.EntityIDs[0]+"/relationships", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFastModeToggle(t *testing.T) {
	h := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/performance/fast-mode", strings.NewReader(`{"enabled": true}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/performance/status", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, true, out["fast_mode"])
	assert.Equal(t, "fast", out["default_mode"])
}

func TestCacheClear(t *testing.T) {
	h := newTestRouter()
	body := `{"person": {"name": "John Smith", "phone": "+1-555-0123", "country": "US"}}`

	req := httptest.NewRequest(http.MethodPost, "/api/check_risk", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/cache/clear", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, float64(1), out["cleared"])
}

func TestStatsEndpoint(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out, "graph")
	assert.Contains(t, out, "cache")
	assert.Contains(t, out, "summary")
	assert.Contains(t, out, "process")
	assert.Contains(t, out, "fast_mode")

	process, ok := out["process"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, process, "requests_total")
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
