package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/ports"
)

const tracerName = "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/adapters/observability"

// Service decorates the payment reconciler with tracing and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	metrics serviceMetrics
}

type Option func(*Service)

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.metrics = newServiceMetrics(m) }
}

// New wraps the core reconciler.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) ReconcileNotification(ctx context.Context, note ports.Notification) error {
	ctx, span := s.tracer.Start(ctx, "PaymentReconciler.ReconcileNotification",
		trace.WithAttributes(
			attribute.String("payment.event", note.EventType),
			attribute.String("payment.object_id", note.ObjectID),
		))
	defer span.End()

	err := s.inner.ReconcileNotification(ctx, note)
	s.metrics.recordNotification(ctx, note.EventType, err)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (s *Service) SweepPendingPayments(ctx context.Context, staleWindow time.Duration) (ports.SweepReport, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentReconciler.SweepPendingPayments")
	defer span.End()

	report, err := s.inner.SweepPendingPayments(ctx, staleWindow)
	span.SetAttributes(
		attribute.Int("sweep.fixed", report.Fixed),
		attribute.Int("sweep.failed", report.Failed),
		attribute.Int("sweep.still_pending", report.StillPending),
	)
	s.metrics.recordSweep(ctx, report, err)
	if err != nil {
		span.RecordError(err)
	}
	return report, err
}

type serviceMetrics struct {
	notifications metric.Int64Counter
	sweeps        metric.Int64Counter
	sweepOutcomes metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	notifications, _ := m.Int64Counter("payments.reconciler.notifications",
		metric.WithDescription("Payment notifications processed by event type"))
	sweeps, _ := m.Int64Counter("payments.reconciler.sweeps",
		metric.WithDescription("Pending-payment sweep runs"))
	sweepOutcomes, _ := m.Int64Counter("payments.reconciler.sweep_outcomes",
		metric.WithDescription("Orders touched by sweeps, by outcome"))
	return serviceMetrics{notifications: notifications, sweeps: sweeps, sweepOutcomes: sweepOutcomes}
}

func (m serviceMetrics) recordNotification(ctx context.Context, eventType string, err error) {
	if m.notifications == nil {
		return
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment.event", eventType),
		attribute.Bool("error", err != nil),
	))
}

func (m serviceMetrics) recordSweep(ctx context.Context, report ports.SweepReport, err error) {
	if m.sweeps == nil {
		return
	}
	m.sweeps.Add(ctx, 1, metric.WithAttributes(attribute.Bool("error", err != nil)))
	m.sweepOutcomes.Add(ctx, int64(report.Fixed), metric.WithAttributes(attribute.String("sweep.outcome", "fixed")))
	m.sweepOutcomes.Add(ctx, int64(report.Failed), metric.WithAttributes(attribute.String("sweep.outcome", "failed")))
	m.sweepOutcomes.Add(ctx, int64(report.StillPending), metric.WithAttributes(attribute.String("sweep.outcome", "still_pending")))
}

var _ ports.Service = (*Service)(nil)
