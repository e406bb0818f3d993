package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appassess "github.com/bryanwahyu/risknet/internal/application/assessment"
	"github.com/bryanwahyu/risknet/internal/application/graphmgr"
	domain "github.com/bryanwahyu/risknet/internal/domain/assessment"
	cachedomain "github.com/bryanwahyu/risknet/internal/domain/cache"
	"github.com/bryanwahyu/risknet/internal/domain/entities"
	"github.com/bryanwahyu/risknet/internal/domain/graph"
	"github.com/bryanwahyu/risknet/internal/middleware"
)

type Router struct {
	assessSvc *appassess.Service
	graphSvc  *graphmgr.Service
	cache     cachedomain.Store
}

func NewRouter(assessSvc *appassess.Service, graphSvc *graphmgr.Service, cache cachedomain.Store) http.Handler {
	r := &Router{assessSvc: assessSvc, graphSvc: graphSvc, cache: cache}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/check_risk", r.wrap(r.handleCheckRisk))
		rt.Get("/entity/{id}/relationships", r.wrap(r.handleRelationships))
		rt.Get("/director/{id}/companies", r.wrap(r.handleCompaniesOf))
		rt.Get("/assessments/latest", r.wrap(r.handleLatest))
		rt.Get("/assessments/{fingerprint}", r.wrap(r.handleGet))
		rt.Get("/summary", r.wrap(r.handleSummary))
		rt.Get("/stats", r.wrap(r.handleStats))
		rt.Post("/performance/fast-mode", r.wrap(r.handleFastMode))
		rt.Get("/performance/status", r.wrap(r.handlePerformanceStatus))
		rt.Post("/cache/clear", r.wrap(r.handleCacheClear))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error": verr.Error(),
					"field": verr.Field,
				})
				return
			}
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, graph.ErrNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /api/check_risk?mode=fast|normal
// Body: nested {person, company}, legacy director_id, or flat legacy format.
func (r *Router) handleCheckRisk(w http.ResponseWriter, req *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
	if err != nil {
		return err
	}

	mode := domain.Mode(req.URL.Query().Get("mode"))
	if mode != "" && mode != domain.ModeNormal && mode != domain.ModeFast {
		return domain.NewValidationError("mode", "must be normal or fast")
	}

	result, err := r.assessSvc.AssessRaw(req.Context(), body, mode)
	if err != nil {
		return err
	}

	middleware.IncrementAssessments()
	if result.Cached {
		middleware.IncrementCacheHits()
	} else {
		middleware.IncrementCacheMisses()
	}
	if result.PartialSuccess {
		middleware.IncrementAssessmentsPartial()
	}
	return writeJSON(w, http.StatusOK, result)
}

// GET /api/entity/{id}/relationships
func (r *Router) handleRelationships(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	rel, err := r.graphSvc.Relationships(req.Context(), entities.EntityID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rel)
}

// GET /api/director/{id}/companies
// {id} may be the external director id or the internal one.
func (r *Router) handleCompaniesOf(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	companies, err := r.graphSvc.CompaniesOf(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"director_id": id,
		"companies":   companies,
	})
}

// GET /api/assessments/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.assessSvc.Latest(req.Context(), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /api/assessments/{fingerprint}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	fp := chi.URLParam(req, "fingerprint")
	a, err := r.assessSvc.Get(req.Context(), fp)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// GET /api/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	summary, err := r.assessSvc.Summary(req.Context(), days)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, summary)
}

// GET /api/stats
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
	out := map[string]any{}
	if stats, err := r.graphSvc.Stats(req.Context()); err == nil {
		out["graph"] = stats
	} else {
		out["graph"] = map[string]string{"error": err.Error()}
	}
	if r.cache != nil {
		if cs, err := r.cache.Stats(req.Context()); err == nil {
			out["cache"] = cs
		}
	}
	if summary, err := r.assessSvc.Summary(req.Context(), 7); err == nil {
		out["summary"] = summary
	}
	out["process"] = middleware.GetMetrics()
	out["fast_mode"] = r.assessSvc.FastMode()
	return writeJSON(w, http.StatusOK, out)
}

// POST /api/performance/fast-mode
// Body: {"enabled": true}
func (r *Router) handleFastMode(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return domain.NewValidationError("body", "malformed JSON")
	}
	r.assessSvc.SetFastMode(body.Enabled)
	return writeJSON(w, http.StatusOK, map[string]any{
		"fast_mode": body.Enabled,
	})
}

// GET /api/performance/status
func (r *Router) handlePerformanceStatus(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]any{
		"fast_mode":    r.assessSvc.FastMode(),
		"default_mode": r.assessSvc.DefaultMode(),
	})
}

// POST /api/cache/clear
func (r *Router) handleCacheClear(w http.ResponseWriter, req *http.Request) error {
	dropped, err := r.assessSvc.ClearCache(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"cleared": dropped,
	})
}
