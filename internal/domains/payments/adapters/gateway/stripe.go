// Package gateway folds the payment provider's session vocabulary into
// the engine's normalized states.
package gateway

import (
	"context"
	"errors"

	stripeclient "github.com/devdazzlee/Licorice4Good-sub001/internal/clients/http/stripe"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/ports"
)

var _ ports.Gateway = (*StripeGateway)(nil)

// StripeGateway adapts the gateway HTTP client to the reconciler's port.
type StripeGateway struct {
	client *stripeclient.Client
}

func NewStripeGateway(client *stripeclient.Client) *StripeGateway {
	return &StripeGateway{client: client}
}

func (g *StripeGateway) SessionByID(ctx context.Context, id string) (*ports.CheckoutSession, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("stripe gateway not configured")
	}
	session, err := g.client.GetCheckoutSession(ctx, id)
	if err != nil {
		return nil, mapClientError(err)
	}
	return toPortSession(session), nil
}

func (g *StripeGateway) SessionByOrderID(ctx context.Context, orderID string) (*ports.CheckoutSession, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("stripe gateway not configured")
	}
	session, err := g.client.FindCheckoutSessionByOrderID(ctx, orderID)
	if err != nil {
		return nil, mapClientError(err)
	}
	return toPortSession(session), nil
}

func toPortSession(session *stripeclient.CheckoutSession) *ports.CheckoutSession {
	return &ports.CheckoutSession{
		ID:      session.ID,
		OrderID: session.OrderID(),
		State:   mapSessionState(session),
	}
}

// mapSessionState normalizes the provider's two status fields. The
// payment_status field wins when it says paid; an expired session that
// never collected payment is a failure; everything else is unsettled.
func mapSessionState(session *stripeclient.CheckoutSession) ports.SessionState {
	switch session.PaymentStatus {
	case "paid", "no_payment_required":
		return ports.SessionPaid
	}
	if session.Status == "expired" {
		return ports.SessionFailed
	}
	return ports.SessionPending
}

func mapClientError(err error) error {
	if errors.Is(err, stripeclient.ErrNotFound) {
		return ports.ErrSessionNotFound
	}
	return err
}
