package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/risknet/internal/application"
	"github.com/bryanwahyu/risknet/internal/application/graphmgr"
	"github.com/bryanwahyu/risknet/internal/application/resolver"
	"github.com/bryanwahyu/risknet/internal/config"
	domain "github.com/bryanwahyu/risknet/internal/domain/assessment"
	cachedomain "github.com/bryanwahyu/risknet/internal/domain/cache"
	"github.com/bryanwahyu/risknet/internal/domain/entities"
	"github.com/bryanwahyu/risknet/internal/domain/graph"
	"github.com/bryanwahyu/risknet/internal/domain/intel"
	"github.com/bryanwahyu/risknet/internal/domain/sanctions"
)

// Service implements use-cases untuk risk assessment.
// Service is designed to be used concurrently and is thread-safe: per-request
// pipeline state lives on the stack, shared collaborators handle their own
// concurrency.
type Service struct {
	Resolver  *resolver.Service
	Sanctions sanctions.Checker
	Intel     intel.Gatherer
	Graph     *graphmgr.Service
	Cache     cachedomain.Store
	History   domain.HistoryRepository
	Failures  domain.FailureRepository
	Reports   domain.ReportArchive
	Scorer    *Scorer
	Clock     application.Clock

	NormalProfile config.ModeProfile
	FastProfile   config.ModeProfile

	// fastDefault is the process-wide default only; every request carries its
	// own mode, so flipping it never races an in-flight pipeline.
	fastDefault atomic.Bool
}

// SetFastMode flips the process-wide default mode for requests that do not
// specify one.
func (s *Service) SetFastMode(enabled bool) {
	s.fastDefault.Store(enabled)
}

func (s *Service) FastMode() bool {
	return s.fastDefault.Load()
}

// DefaultMode resolves "" to the current process default.
func (s *Service) DefaultMode() domain.Mode {
	if s.fastDefault.Load() {
		return domain.ModeFast
	}
	return domain.ModeNormal
}

func (s *Service) profileFor(mode domain.Mode) config.ModeProfile {
	if mode == domain.ModeFast {
		return s.FastProfile
	}
	return s.NormalProfile
}

// AssessRaw resolves a raw request body and runs the pipeline.
func (s *Service) AssessRaw(ctx context.Context, body []byte, mode domain.Mode) (*domain.AssessmentResult, error) {
	resolved, err := s.Resolver.Resolve(body)
	if err != nil {
		return nil, err
	}
	return s.Assess(ctx, resolved, mode)
}

// needSet marks which sources still have to be gathered.
type needSet struct {
	sanctions bool
	intel     bool
	graph     bool
}

func allSources() needSet { return needSet{sanctions: true, intel: true, graph: true} }

// Assess runs the pipeline: cache check, concurrent gathering under the
// mode's deadline, scoring, then best-effort persistence. A cache hit with
// every source present short-circuits everything after the lookup. A hit with
// unavailable sources re-gathers only those and re-scores.
func (s *Service) Assess(ctx context.Context, resolved *resolver.Resolved, mode domain.Mode) (*domain.AssessmentResult, error) {
	if mode == "" {
		mode = s.DefaultMode()
	}
	profile := s.profileFor(mode)
	start := s.Clock.Now()
	fp := Fingerprint(resolved)

	need := allSources()
	var sig Signals
	if s.Cache != nil {
		if hit, err := s.Cache.Get(ctx, fp); err == nil {
			if len(hit.UnavailableSources()) == 0 {
				hit.Cached = true
				return hit, nil
			}
			// partial hit: keep the good slices, re-gather only the failed ones
			sig, need = signalsFromCached(hit)
		}
	}

	gathered, failures := s.gather(ctx, resolved, profile, need)
	if need.sanctions {
		sig.Sanctions = gathered.Sanctions
	}
	if need.intel {
		sig.Intel = gathered.Intel
	}
	if need.graph {
		sig.Graph = gathered.Graph
	}

	scored := s.Scorer.Score(sig)

	result := s.buildResult(resolved, fp, mode, scored, sig, start)
	s.persist(ctx, resolved, fp, result, failures, profile)
	return result, nil
}

func (s *Service) buildResult(resolved *resolver.Resolved, fp string, mode domain.Mode, scored Scored, sig Signals, start time.Time) *domain.AssessmentResult {
	var ids []entities.EntityID
	for _, e := range resolved.Subjects() {
		ids = append(ids, e.ID)
	}
	r := &domain.AssessmentResult{
		Fingerprint:     fp,
		EntityIDs:       ids,
		InputType:       resolved.InputType,
		Mode:            mode,
		RiskScore:       scored.Score,
		RiskLevel:       scored.Level,
		ComponentScores: scored.Components,
		RiskFactors:     scored.Factors,
		Recommendations: scored.Recommendations,
		AssessedAt:      start,
		DurationMS:      s.Clock.Now().Sub(start).Milliseconds(),
	}

	r.Sanctions = domain.SanctionsSignal{Status: domain.SourceUnavailable}
	if sig.Sanctions != nil {
		r.Sanctions = domain.SanctionsSignal{
			Status:            domain.SourceOK,
			Matched:           sig.Sanctions.Matched,
			HighestConfidence: sig.Sanctions.HighestConfidence,
			TotalMatches:      sig.Sanctions.TotalMatches,
			Matches:           sig.Sanctions.Matches,
		}
	}

	r.WebIntel = domain.WebIntelSignal{Status: domain.SourceUnavailable}
	if sig.Intel != nil {
		r.WebIntel = domain.WebIntelSignal{
			Status:         domain.SourceOK,
			Summary:        sig.Intel.Summary,
			RiskIndicators: sig.Intel.RiskIndicators,
			Sentiment:      sig.Intel.Sentiment,
			Confidence:     sig.Intel.Confidence,
			KeyFindings:    sig.Intel.KeyFindings,
			Provider:       sig.Intel.Provider,
		}
	}

	r.Graph = domain.GraphSignal{Status: domain.SourceUnavailable}
	if sig.Graph != nil {
		r.Graph = domain.GraphSignal{
			Status:          domain.SourceOK,
			ConnectionCount: sig.Graph.ConnectionCount,
			RiskConnections: sig.Graph.RiskConnections,
			MaxNeighborRisk: maxNeighborLevel(sig.Graph),
		}
	}

	r.PartialSuccess = len(r.UnavailableSources()) > 0
	return r
}

// gather fans out the needed sources concurrently under one deadline. Each
// source retries transient failures with backoff; exhausting retries or the
// deadline degrades that source to nil, never fails the group. Scoring starts
// only after every source has settled.
func (s *Service) gather(ctx context.Context, resolved *resolver.Resolved, profile config.ModeProfile, need needSet) (Signals, []*domain.SourceFailure) {
	gctx, cancel := context.WithTimeout(ctx, profile.GatherTimeout)
	defer cancel()

	var (
		sig      Signals
		mu       sync.Mutex
		failures []*domain.SourceFailure
	)
	fail := func(source string, err error) {
		mu.Lock()
		failures = append(failures, &domain.SourceFailure{
			Source:     source,
			Stage:      "gathering",
			Message:    err.Error(),
			OccurredAt: s.Clock.Now(),
		})
		mu.Unlock()
		log.Printf("[assess] source %s unavailable: %v", source, err)
	}

	g, gctx := errgroup.WithContext(gctx)

	if need.sanctions && s.Sanctions != nil {
		g.Go(func() error {
			subjects := resolved.Subjects()
			err := withRetry(gctx, profile.SourceRetries, profile.RetryBackoff, func(ctx context.Context) error {
				// every subject is screened; a sanctioned company must surface
				// even when submitted next to a clean person
				merged := &sanctions.Result{}
				for _, e := range subjects {
					res, err := s.Sanctions.Check(ctx, e.Name, e.Country, e.Kind)
					if err != nil {
						return err
					}
					mergeSanctions(merged, res)
				}
				sig.Sanctions = merged
				return nil
			})
			if err != nil {
				fail("sanctions", err)
			}
			return nil
		})
	}

	if need.intel && s.Intel != nil {
		g.Go(func() error {
			var subjects []intel.EntitySummary
			for _, e := range resolved.Subjects() {
				subjects = append(subjects, intel.EntitySummary{
					Name:    e.Name,
					Kind:    e.Kind,
					Country: e.Country,
				})
			}
			err := withRetry(gctx, profile.SourceRetries, profile.RetryBackoff, func(ctx context.Context) error {
				res, err := s.Intel.Gather(ctx, subjects)
				if err != nil {
					return err
				}
				sig.Intel = res
				return nil
			})
			if err != nil {
				fail("web_intelligence", err)
			}
			return nil
		})
	}

	if need.graph && s.Graph != nil {
		g.Go(func() error {
			var ids []entities.EntityID
			for _, e := range resolved.Subjects() {
				ids = append(ids, e.ID)
			}
			err := withRetry(gctx, profile.SourceRetries, profile.RetryBackoff, func(ctx context.Context) error {
				res, err := s.Graph.Analyze(ctx, ids)
				if err != nil {
					return err
				}
				sig.Graph = res
				return nil
			})
			if err != nil {
				fail("graph", err)
			}
			return nil
		})
	}

	_ = g.Wait()
	return sig, failures
}

// persist writes graph relationships, history, report, and cache after
// scoring. Every step is best-effort: failures flip partial_success and are
// logged, the computed score stands.
func (s *Service) persist(ctx context.Context, resolved *resolver.Resolved, fp string, result *domain.AssessmentResult, failures []*domain.SourceFailure, profile config.ModeProfile) {
	if s.Graph != nil {
		if err := s.Graph.Persist(ctx, resolved, string(result.RiskLevel)); err != nil {
			perr := &domain.PersistenceError{Op: "graph", Err: err}
			log.Printf("[assess] %v", perr)
			result.PartialSuccess = true
		}
	}

	if s.Reports != nil {
		if body, err := json.Marshal(result); err == nil {
			key := fmt.Sprintf("assessments/%s/%s.json", result.AssessedAt.UTC().Format("2006-01-02"), fp)
			if url, err := s.Reports.PutReport(ctx, key, body); err != nil {
				log.Printf("[assess] %v", &domain.PersistenceError{Op: "report", Err: err})
				result.PartialSuccess = true
			} else {
				result.ReportURL = url
			}
		}
	}

	if s.History != nil {
		if err := s.History.Save(ctx, result); err != nil {
			log.Printf("[assess] %v", &domain.PersistenceError{Op: "history", Err: err})
			result.PartialSuccess = true
		}
	}

	if s.Failures != nil {
		for _, f := range failures {
			f.Fingerprint = fp
			if err := s.Failures.Record(ctx, f); err != nil {
				log.Printf("[assess] failure audit write: %v", err)
			}
		}
	}

	if s.Cache != nil {
		if err := s.Cache.Put(ctx, fp, result, profile.CacheTTL); err != nil {
			log.Printf("[assess] %v", &domain.PersistenceError{Op: "cache", Err: err})
		}
	}
}

// Latest ambil N assessment terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.AssessmentResult, error) {
	if s.History == nil {
		return nil, nil
	}
	return s.History.Latest(ctx, limit)
}

// Get ambil 1 assessment by fingerprint, plus its audited degradation events
func (s *Service) Get(ctx context.Context, fp string) (*domain.AssessmentResult, error) {
	if s.History == nil {
		return nil, domain.ErrNotFound
	}
	r, err := s.History.Get(ctx, fp)
	if err != nil {
		return nil, err
	}
	if s.Failures != nil {
		if failures, err := s.Failures.ListByFingerprint(ctx, fp, 20); err == nil {
			r.SourceFailures = failures
		}
	}
	return r, nil
}

// Summary rekap hasil assessment N hari terakhir
func (s *Service) Summary(ctx context.Context, sinceDays int) (*domain.Summary, error) {
	if s.History == nil {
		return &domain.Summary{}, nil
	}
	return s.History.Summary(ctx, sinceDays)
}

// ClearCache flushes all cached results, returning how many were dropped.
func (s *Service) ClearCache(ctx context.Context) (int, error) {
	if s.Cache == nil {
		return 0, nil
	}
	return s.Cache.Flush(ctx)
}

// withRetry runs fn up to retries+1 times with linear backoff. Context
// cancellation stops the loop immediately; the last error is returned.
func withRetry(ctx context.Context, retries int, backoff time.Duration, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff * time.Duration(attempt+1)):
		}
	}
	return err
}

// mergeSanctions folds one subject's registry result into the combined one:
// match sets concatenate, the highest confidence wins.
func mergeSanctions(dst, src *sanctions.Result) {
	if src == nil {
		return
	}
	dst.Matched = dst.Matched || src.Matched
	dst.Matches = append(dst.Matches, src.Matches...)
	dst.TotalMatches += src.TotalMatches
	if src.HighestConfidence > dst.HighestConfidence {
		dst.HighestConfidence = src.HighestConfidence
	}
}

func maxNeighborLevel(a *graph.Analysis) string {
	best := ""
	bestScore := -1.0
	for _, n := range a.Neighbors {
		if s := levelScore(n.RiskLevel); s > bestScore {
			bestScore = s
			best = n.RiskLevel
		}
	}
	return best
}

// signalsFromCached rebuilds scorer inputs from the slices a partial cache
// hit already has, and reports which sources still need gathering.
func signalsFromCached(hit *domain.AssessmentResult) (Signals, needSet) {
	var sig Signals
	need := allSources()
	if hit.Sanctions.Status == domain.SourceOK {
		need.sanctions = false
		sig.Sanctions = &sanctions.Result{
			Matched:           hit.Sanctions.Matched,
			Matches:           hit.Sanctions.Matches,
			TotalMatches:      hit.Sanctions.TotalMatches,
			HighestConfidence: hit.Sanctions.HighestConfidence,
		}
	}
	if hit.WebIntel.Status == domain.SourceOK {
		need.intel = false
		sig.Intel = &intel.Result{
			Summary:        hit.WebIntel.Summary,
			RiskIndicators: hit.WebIntel.RiskIndicators,
			Sentiment:      hit.WebIntel.Sentiment,
			Confidence:     hit.WebIntel.Confidence,
			KeyFindings:    hit.WebIntel.KeyFindings,
			Provider:       hit.WebIntel.Provider,
		}
	}
	if hit.Graph.Status == domain.SourceOK {
		need.graph = false
		a := &graph.Analysis{
			ConnectionCount: hit.Graph.ConnectionCount,
			RiskConnections: hit.Graph.RiskConnections,
		}
		if hit.Graph.MaxNeighborRisk != "" {
			a.Neighbors = []graph.NeighborRisk{{RiskLevel: hit.Graph.MaxNeighborRisk, Distance: 1}}
		}
		sig.Graph = a
	}
	return sig, need
}
