package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ordersdomain "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/domain"
	ordersports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/ports"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/ports"
)

// Session event types the reconciler understands. Anything else is a
// forward-compatible no-op.
const (
	EventSessionCompleted  = "checkout.session.completed"
	EventSessionPaymentOK  = "checkout.session.async_payment_succeeded"
	EventSessionPaymentBad = "checkout.session.async_payment_failed"
	EventSessionExpired    = "checkout.session.expired"
)

// DefaultStaleWindow is the age past which a pending order with no
// resolvable session is presumed failed rather than still settling.
const DefaultStaleWindow = 24 * time.Hour

// Reconciler converges local payment status onto the gateway's last
// known authoritative state. Both entry points are idempotent: the
// conditional repository write means a replayed notification or an
// overlapping sweep cannot mutate a settled order.
type Reconciler struct {
	orders  ordersports.Repository
	gateway ports.Gateway
	logger  *slog.Logger
}

var _ ports.Service = (*Reconciler)(nil)

type Option func(*Reconciler)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

func NewReconciler(orders ordersports.Repository, gateway ports.Gateway, opts ...Option) *Reconciler {
	r := &Reconciler{orders: orders, gateway: gateway}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// ReconcileNotification handles a pushed gateway event. The pushed
// status is advisory; the session is re-fetched so the write reflects
// the gateway's authoritative state, not a possibly stale payload.
func (r *Reconciler) ReconcileNotification(ctx context.Context, n ports.Notification) error {
	switch n.EventType {
	case EventSessionCompleted, EventSessionPaymentOK, EventSessionPaymentBad, EventSessionExpired:
	default:
		r.logInfo(ctx, "ignoring unknown gateway event",
			slog.String("event.type", n.EventType), slog.String("object.id", n.ObjectID))
		return nil
	}

	session, err := r.gateway.SessionByID(ctx, n.ObjectID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			// Still settling on the gateway side; the sweep will catch it.
			r.logInfo(ctx, "gateway session not yet resolvable", slog.String("object.id", n.ObjectID))
			return nil
		}
		return fmt.Errorf("fetch session %s: %w", n.ObjectID, err)
	}
	if session.OrderID == "" {
		r.logInfo(ctx, "gateway session carries no order correlation", slog.String("session.id", session.ID))
		return nil
	}
	_, err = r.applySessionState(ctx, session.OrderID, session.State)
	return err
}

// SweepPendingPayments walks every locally pending order and reconciles
// it against the gateway by correlation id. Re-running the sweep on the
// same data set produces the same end state.
func (r *Reconciler) SweepPendingPayments(ctx context.Context, staleWindow time.Duration) (ports.SweepReport, error) {
	if staleWindow <= 0 {
		staleWindow = DefaultStaleWindow
	}
	pending, err := r.orders.ListPendingPayments(ctx)
	if err != nil {
		return ports.SweepReport{}, fmt.Errorf("list pending payments: %w", err)
	}

	var report ports.SweepReport
	now := time.Now().UTC()
	for _, order := range pending {
		session, err := r.gateway.SessionByOrderID(ctx, order.ID)
		if err != nil {
			if !errors.Is(err, ports.ErrSessionNotFound) {
				return report, fmt.Errorf("lookup session for order %s: %w", order.ID, err)
			}
			if now.Sub(order.CreatedAt) > staleWindow {
				changed, err := r.applySessionState(ctx, order.ID, ports.SessionFailed)
				if err != nil {
					return report, err
				}
				if changed {
					report.Failed++
				} else {
					report.StillPending++
				}
				continue
			}
			// Recent order with no session yet: legitimately still settling.
			report.StillPending++
			continue
		}

		switch session.State {
		case ports.SessionPaid:
			changed, err := r.applySessionState(ctx, order.ID, ports.SessionPaid)
			if err != nil {
				return report, err
			}
			if changed {
				report.Fixed++
			} else {
				report.StillPending++
			}
		case ports.SessionFailed:
			changed, err := r.applySessionState(ctx, order.ID, ports.SessionFailed)
			if err != nil {
				return report, err
			}
			if changed {
				report.Failed++
			} else {
				report.StillPending++
			}
		default:
			report.StillPending++
		}
	}
	return report, nil
}

// applySessionState writes the normalized gateway state through the
// conditional repository update. Paid is terminal: a settled order is
// never downgraded, and the update reports false instead of mutating.
func (r *Reconciler) applySessionState(ctx context.Context, orderID string, state ports.SessionState) (bool, error) {
	var (
		payment     ordersdomain.PaymentStatus
		orderStatus ordersdomain.OrderStatus
	)
	switch state {
	case ports.SessionPaid:
		payment = ordersdomain.PaymentPaid
		orderStatus = ordersdomain.OrderConfirmed
	case ports.SessionFailed:
		payment = ordersdomain.PaymentFailed
	default:
		return false, nil
	}

	changed, err := r.orders.SetPaymentStatusIfPending(ctx, orderID, payment, orderStatus)
	if err != nil {
		if errors.Is(err, ordersports.ErrNotFound) {
			r.logInfo(ctx, "gateway event references unknown order", slog.String("order.id", orderID))
			return false, nil
		}
		return false, fmt.Errorf("update payment status for order %s: %w", orderID, err)
	}
	if changed {
		r.logInfo(ctx, "payment status reconciled",
			slog.String("order.id", orderID), slog.String("payment.status", string(payment)))
	}
	return changed, nil
}

func (r *Reconciler) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if r.logger == nil {
		return
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}
