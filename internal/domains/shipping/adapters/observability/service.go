package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/domain"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/ports"
)

const tracerName = "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/adapters/observability"

// Service decorates the fulfillment orchestrator with tracing and
// metrics.
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

// New wraps the core orchestrator.
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

func (s *Service) GetRates(ctx context.Context, to domain.Address, parcel domain.Parcel) ([]domain.Rate, error) {
	ctx, span := s.tracer.Start(ctx, "Fulfillment.GetRates")
	defer span.End()

	rates, err := s.inner.GetRates(ctx, to, parcel)
	span.SetAttributes(attribute.Int("shipping.rate_count", len(rates)))
	if err != nil {
		span.RecordError(err)
	}
	return rates, err
}

func (s *Service) PurchaseLabel(ctx context.Context, req ports.LabelRequest) (domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "Fulfillment.PurchaseLabel",
		trace.WithAttributes(attribute.String("order.id", req.OrderID)))
	defer span.End()

	tx, err := s.inner.PurchaseLabel(ctx, req)
	span.SetAttributes(attribute.String("shipping.transaction_status", string(tx.Status)))
	s.metrics.recordLabelPurchase(ctx, tx, err)
	if err != nil {
		span.RecordError(err)
	}
	return tx, err
}

func (s *Service) ReconcileShipment(ctx context.Context, note ports.Notification) error {
	ctx, span := s.tracer.Start(ctx, "Fulfillment.ReconcileShipment",
		trace.WithAttributes(
			attribute.String("shipping.event", note.EventType),
			attribute.String("shipping.object_id", note.ObjectID),
		))
	defer span.End()

	err := s.inner.ReconcileShipment(ctx, note)
	s.metrics.recordEvent(ctx, note.EventType, err)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

type serviceMetrics struct {
	labelPurchases metric.Int64Counter
	events         metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	labelPurchases, _ := m.Int64Counter("shipping.labels.purchases",
		metric.WithDescription("Label purchase attempts by outcome"))
	events, _ := m.Int64Counter("shipping.webhook.events",
		metric.WithDescription("Shipping webhook events processed by type"))
	return serviceMetrics{labelPurchases: labelPurchases, events: events}
}

func (m serviceMetrics) recordLabelPurchase(ctx context.Context, tx domain.Transaction, err error) {
	if m.labelPurchases == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.labelPurchases.Add(ctx, 1, metric.WithAttributes(
		attribute.String("shipping.outcome", outcome),
		attribute.String("shipping.transaction_status", string(tx.Status)),
	))
}

func (m serviceMetrics) recordEvent(ctx context.Context, eventType string, err error) {
	if m.events == nil {
		return
	}
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("shipping.event", eventType),
		attribute.Bool("error", err != nil),
	))
}

var _ ports.Service = (*Service)(nil)
