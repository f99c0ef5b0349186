package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/domain"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/ports"
)

// Engine aggregates the independent signal evaluators into one scored,
// flagged, classified verdict per order. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	cfg       Config
	customers ports.CustomerReader
	history   ports.HistoryReader
	now       func() time.Time
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithClock overrides the time source, used by evaluator tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine wires the scoring engine with its read-only collaborators.
func NewEngine(cfg Config, customers ports.CustomerReader, history ports.HistoryReader, opts ...Option) *Engine {
	if cfg.BatchChunkSize <= 0 {
		cfg.BatchChunkSize = DefaultConfig().BatchChunkSize
	}
	e := &Engine{
		cfg:       cfg,
		customers: customers,
		history:   history,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Assess runs every evaluator against the snapshot and classifies the
// summed score. It never fails: an evaluator that cannot read its
// dependency contributes a fixed penalty plus its check-error flag, and
// an unexpected fault inside the engine degrades to the conservative
// score-100 verdict rather than blocking checkout.
func (e *Engine) Assess(ctx context.Context, snapshot domain.Snapshot) (assessment domain.Assessment) {
	defer func() {
		if recover() != nil {
			assessment = conservativeAssessment(snapshot.OrderID)
		}
	}()

	total := 0
	var flags []string
	for _, eval := range e.evaluators() {
		c, err := eval.run(ctx, snapshot)
		if err != nil {
			if eval.errFlag == "" {
				// Pure evaluators have no dependency to fail on.
				continue
			}
			total += e.cfg.CheckErrorPenalty
			flags = append(flags, eval.errFlag)
			continue
		}
		total += c.score
		flags = append(flags, c.flags...)
	}
	return e.classify(snapshot.OrderID, domain.ClampScore(total), flags)
}

// BatchAssess scores many snapshots with bounded concurrency, chunked
// so a large batch cannot overwhelm the data layer. A failing order
// yields its conservative placeholder without aborting the batch.
func (e *Engine) BatchAssess(ctx context.Context, snapshots []domain.Snapshot) map[string]domain.Assessment {
	results := make(map[string]domain.Assessment, len(snapshots))
	var mu sync.Mutex

	for start := 0; start < len(snapshots); start += e.cfg.BatchChunkSize {
		end := start + e.cfg.BatchChunkSize
		if end > len(snapshots) {
			end = len(snapshots)
		}
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(e.cfg.BatchChunkSize)
		for _, snapshot := range snapshots[start:end] {
			snapshot := snapshot
			group.Go(func() error {
				verdict := e.Assess(groupCtx, snapshot)
				mu.Lock()
				results[snapshot.OrderID] = verdict
				mu.Unlock()
				return nil
			})
		}
		// Goroutines never return errors; Wait only synchronizes the chunk.
		_ = group.Wait()
	}
	return results
}

func (e *Engine) classify(orderID string, score int, flags []string) domain.Assessment {
	assessment := domain.Assessment{
		OrderID:     orderID,
		Score:       score,
		Flags:       flags,
		AutoApprove: score <= e.cfg.AutoApproveMax,
		Valid:       score < e.cfg.ReviewThreshold,
	}
	assessment.Recommendations = e.recommend(assessment)
	return assessment
}

// recommend maps fired flags onto operator actions. The mapping is
// deterministic so repeated assessments of the same snapshot agree.
func (e *Engine) recommend(a domain.Assessment) []string {
	set := map[string]bool{}
	if a.HasFlag(domain.FlagEmailNotVerified) {
		set[domain.RecommendEmailVerification] = true
	}
	if a.HasFlag(domain.FlagHighOrderValue) || a.HasFlag(domain.FlagAboveCustomerAverage) || a.HasFlag(domain.FlagAboveCustomerMax) {
		set[domain.RecommendAccountVerification] = true
	}
	if a.HasFlag(domain.FlagHighFrequencyHour) || a.HasFlag(domain.FlagHighFrequencyDay) ||
		a.HasFlag(domain.FlagRapidRepeatOrders) || a.HasFlag(domain.FlagDuplicatePattern) {
		set[domain.RecommendRateLimit] = true
	}
	if a.Score >= e.cfg.ReviewThreshold {
		set[domain.RecommendManualReview] = true
	}
	if len(set) == 0 {
		return nil
	}
	recommendations := make([]string, 0, len(set))
	for code := range set {
		recommendations = append(recommendations, code)
	}
	sort.Strings(recommendations)
	return recommendations
}

func conservativeAssessment(orderID string) domain.Assessment {
	return domain.Assessment{
		OrderID:         orderID,
		Score:           100,
		Flags:           []string{domain.FlagVerificationError},
		AutoApprove:     false,
		Valid:           false,
		Recommendations: []string{domain.RecommendManualReview},
	}
}

var _ ports.Assessor = (*Engine)(nil)
