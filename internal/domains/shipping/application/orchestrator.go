package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ordersdomain "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/domain"
	ordersports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/ports"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/domain"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/ports"
)

// Shipment event types consumed from the provider's webhook. Anything
// else is a forward-compatible no-op.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTrackUpdated       = "track.updated"
)

// DefaultRecheckDelay is how long a queued label transaction is given
// to settle before the single re-fetch.
const DefaultRecheckDelay = 3 * time.Second

// Orchestrator drives the label lifecycle: quoting rates, purchasing a
// label with one bounded recheck, persisting shipment facts, and
// consuming carrier webhooks. The order row is the only durable state;
// nothing from the provider is cached across calls.
type Orchestrator struct {
	orders       ordersports.Repository
	provider     ports.Provider
	origin       domain.Address
	recheckDelay time.Duration
	logger       *slog.Logger
	sleep        func(ctx context.Context, d time.Duration)
}

var _ ports.Service = (*Orchestrator)(nil)

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithRecheckDelay overrides the queued-transaction settle delay.
func WithRecheckDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.recheckDelay = d }
}

// WithSleeper replaces the blocking wait, letting tests run the queued
// recheck without real delays.
func WithSleeper(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// New builds the orchestrator. origin is the warehouse address labels
// ship from.
func New(orders ordersports.Repository, provider ports.Provider, origin domain.Address, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		orders:       orders,
		provider:     provider,
		origin:       origin,
		recheckDelay: DefaultRecheckDelay,
		logger:       slog.Default(),
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// GetRates validates the destination and returns the provider's quoted
// carrier options. No order state is touched.
func (o *Orchestrator) GetRates(ctx context.Context, to domain.Address, parcel domain.Parcel) ([]domain.Rate, error) {
	validated, err := o.provider.ValidateAddress(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("validate address: %w", err)
	}
	shipment, err := o.provider.CreateShipment(ctx, o.origin, validated, parcel)
	if err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	if len(shipment.Rates) == 0 {
		return nil, domain.ErrNoRates
	}
	return shipment.Rates, nil
}

// PurchaseLabel buys a label for the order and atomically persists the
// shipment facts. A terminal provider error records only the error
// message; previously persisted facts are never overwritten.
func (o *Orchestrator) PurchaseLabel(ctx context.Context, req ports.LabelRequest) (domain.Transaction, error) {
	order, err := o.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("load order %s: %w", req.OrderID, err)
	}

	rateID := req.RateID
	var chosen domain.Rate
	if rateID == "" {
		rates, err := o.GetRates(ctx, req.To, req.Parcel)
		if err != nil {
			return domain.Transaction{}, o.failShipment(ctx, order.ID, err)
		}
		chosen = cheapestRate(rates)
		rateID = chosen.ID
	}

	tx, err := o.provider.PurchaseLabel(ctx, rateID)
	if err != nil {
		return domain.Transaction{}, o.failShipment(ctx, order.ID, fmt.Errorf("purchase label: %w", err))
	}
	tx = o.settleQueued(ctx, tx)

	if tx.Rate.ID == "" {
		tx.Rate = chosen
	}

	switch {
	case tx.Status == domain.TransactionError:
		msg := strings.Join(tx.Messages, "; ")
		if msg == "" {
			msg = "label provider reported an error"
		}
		return tx, o.failShipment(ctx, order.ID, fmt.Errorf("%w: %s", domain.ErrLabelPurchase, msg))
	case tx.TrackingNumber == "":
		return tx, o.failShipment(ctx, order.ID,
			fmt.Errorf("%w: transaction %s still %s after recheck", domain.ErrMissingTracking, tx.ID, tx.Status))
	}

	facts := ordersdomain.ShipmentFacts{
		ShipmentID:     tx.ShipmentID,
		TrackingNumber: tx.TrackingNumber,
		TrackingURL:    domain.TrackingURL(tx.TrackingURL, tx.Rate.Carrier, tx.TrackingNumber),
		LabelURL:       tx.LabelURL,
		Carrier:        tx.Rate.Carrier,
		Service:        tx.Rate.ServiceLevel,
		Cost:           tx.Rate.Amount,
	}
	if facts.ShipmentID == "" {
		facts.ShipmentID = tx.ID
	}
	if err := o.orders.ApplyShipmentFacts(ctx, order.ID, facts); err != nil {
		return tx, fmt.Errorf("persist shipment facts: %w", err)
	}
	o.logger.InfoContext(ctx, "shipping label purchased",
		slog.String("order.id", order.ID),
		slog.String("shipment.id", facts.ShipmentID),
		slog.String("shipment.carrier", facts.Carrier),
		slog.String("shipment.tracking_number", facts.TrackingNumber),
	)
	return tx, nil
}

// settleQueued gives a queued transaction one fixed delay and a single
// re-fetch. Whatever state the re-fetch yields is what the caller
// proceeds with; a failed re-fetch keeps the queued data.
func (o *Orchestrator) settleQueued(ctx context.Context, tx domain.Transaction) domain.Transaction {
	if tx.Terminal() {
		return tx
	}
	o.sleep(ctx, o.recheckDelay)
	refreshed, err := o.provider.GetTransaction(ctx, tx.ID)
	if err != nil {
		o.logger.WarnContext(ctx, "label recheck failed, proceeding with queued data",
			slog.String("transaction.id", tx.ID),
			slog.String("error", err.Error()),
		)
		return tx
	}
	return refreshed
}

// ReconcileShipment maps a pushed provider event onto the order's
// shipping state machine. Regressive transitions are rejected by the
// guarded write and simply ignored.
func (o *Orchestrator) ReconcileShipment(ctx context.Context, note ports.Notification) error {
	switch note.EventType {
	case EventTransactionCreated, EventTransactionUpdated, EventTrackUpdated:
	default:
		o.logger.InfoContext(ctx, "ignoring unknown shipping event",
			slog.String("shipping.event", note.EventType),
			slog.String("shipping.object_id", note.ObjectID),
		)
		return nil
	}

	order, err := o.resolveOrder(ctx, note)
	if errors.Is(err, ordersports.ErrNotFound) {
		o.logger.WarnContext(ctx, "shipping event for unknown order",
			slog.String("shipping.event", note.EventType),
			slog.String("shipping.object_id", note.ObjectID),
			slog.String("shipping.tracking_number", note.TrackingNumber),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve order for shipping event: %w", err)
	}

	next, ok := shippingStatusFromEvent(note.Status)
	if !ok {
		o.logger.InfoContext(ctx, "ignoring unrecognized shipment status",
			slog.String("shipping.status", note.Status),
			slog.String("order.id", order.ID),
		)
		return nil
	}
	changed, err := o.orders.AdvanceShippingStatus(ctx, order.ID, next)
	if err != nil {
		return fmt.Errorf("advance shipping status: %w", err)
	}
	if !changed {
		// Duplicate or out-of-order event; the guarded write already
		// refused the regression.
		return nil
	}
	o.logger.InfoContext(ctx, "shipping status advanced",
		slog.String("order.id", order.ID),
		slog.String("shipping.status", string(next)),
	)
	return nil
}

func (o *Orchestrator) resolveOrder(ctx context.Context, note ports.Notification) (*ordersdomain.Order, error) {
	if note.ObjectID != "" {
		order, err := o.orders.GetByShipmentID(ctx, note.ObjectID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, ordersports.ErrNotFound) {
			return nil, err
		}
	}
	if note.TrackingNumber != "" {
		return o.orders.GetByTrackingNumber(ctx, note.TrackingNumber)
	}
	return nil, ordersports.ErrNotFound
}

// failShipment records the failure on the order and returns the cause.
// Prior shipment facts stay untouched.
func (o *Orchestrator) failShipment(ctx context.Context, orderID string, cause error) error {
	if recordErr := o.orders.RecordShipmentError(ctx, orderID, cause.Error()); recordErr != nil {
		o.logger.ErrorContext(ctx, "failed to record shipment error",
			slog.String("order.id", orderID),
			slog.String("error", recordErr.Error()),
		)
	}
	return cause
}

func cheapestRate(rates []domain.Rate) domain.Rate {
	best := rates[0]
	for _, rate := range rates[1:] {
		if rate.Amount < best.Amount {
			best = rate
		}
	}
	return best
}

// shippingStatusFromEvent maps the provider's tracking vocabulary to
// the order's shipping machine.
func shippingStatusFromEvent(status string) (ordersdomain.ShippingStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "TRANSIT", "IN_TRANSIT":
		return ordersdomain.ShippingInTransit, true
	case "SHIPPED":
		return ordersdomain.ShippingShipped, true
	case "DELIVERED":
		return ordersdomain.ShippingDelivered, true
	case "FAILURE", "FAILED", "RETURNED":
		return ordersdomain.ShippingFailed, true
	case "SUCCESS", "LABEL_CREATED":
		return ordersdomain.ShippingLabelCreated, true
	default:
		return "", false
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
