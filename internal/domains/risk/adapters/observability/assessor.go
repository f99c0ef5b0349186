package observability

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	riskdomain "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/domain"
	riskports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/ports"
)

const tracerName = "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/adapters/observability"

// Assessor decorates the scoring engine with tracing, metrics, and the
// high-risk audit log.
type Assessor struct {
	inner   riskports.Assessor
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics assessorMetrics
}

type Option func(*Assessor)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Assessor) { a.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(a *Assessor) { a.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(a *Assessor) { a.metrics = newAssessorMetrics(m) }
}

// New wraps the core scoring engine.
func New(inner riskports.Assessor, opts ...Option) riskports.Assessor {
	a := &Assessor{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.tracer == nil {
		a.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return a
}

func (a *Assessor) Assess(ctx context.Context, snapshot riskdomain.Snapshot) riskdomain.Assessment {
	ctx, span := a.tracer.Start(ctx, "RiskEngine.Assess",
		trace.WithAttributes(
			attribute.String("order.id", snapshot.OrderID),
			attribute.String("customer.id", snapshot.CustomerID),
		))
	defer span.End()

	verdict := a.inner.Assess(ctx, snapshot)
	span.SetAttributes(
		attribute.Int("risk.score", verdict.Score),
		attribute.Bool("risk.auto_approve", verdict.AutoApprove),
	)
	a.metrics.recordAssessment(ctx, verdict)
	a.audit(ctx, verdict)
	return verdict
}

func (a *Assessor) BatchAssess(ctx context.Context, snapshots []riskdomain.Snapshot) map[string]riskdomain.Assessment {
	ctx, span := a.tracer.Start(ctx, "RiskEngine.BatchAssess",
		trace.WithAttributes(attribute.Int("risk.batch.size", len(snapshots))))
	defer span.End()

	results := a.inner.BatchAssess(ctx, snapshots)
	for _, verdict := range results {
		a.metrics.recordAssessment(ctx, verdict)
		a.audit(ctx, verdict)
	}
	return results
}

// audit writes the review-queue log line for high-risk verdicts.
func (a *Assessor) audit(ctx context.Context, verdict riskdomain.Assessment) {
	if a.logger == nil || verdict.Valid {
		return
	}
	a.logger.LogAttrs(ctx, slog.LevelWarn, "high-risk order held for review",
		slog.String("order.id", verdict.OrderID),
		slog.Int("risk.score", verdict.Score),
		slog.String("risk.flags", strings.Join(verdict.Flags, ",")),
		slog.String("risk.recommendations", strings.Join(verdict.Recommendations, ",")),
	)
}

type assessorMetrics struct {
	assessments metric.Int64Counter
}

func newAssessorMetrics(m metric.Meter) assessorMetrics {
	if m == nil {
		return assessorMetrics{}
	}
	assessments, _ := m.Int64Counter("risk.engine.assessments",
		metric.WithDescription("Number of risk assessments by classification"))
	return assessorMetrics{assessments: assessments}
}

func (m assessorMetrics) recordAssessment(ctx context.Context, verdict riskdomain.Assessment) {
	if m.assessments == nil {
		return
	}
	classification := "monitor"
	switch {
	case verdict.AutoApprove:
		classification = "auto_approved"
	case !verdict.Valid:
		classification = "high_risk"
	}
	m.assessments.Add(ctx, 1, metric.WithAttributes(attribute.String("risk.classification", classification)))
}

var _ riskports.Assessor = (*Assessor)(nil)
