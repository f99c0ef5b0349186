package ports

import (
	"context"
	"errors"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// SessionState is the engine's normalized view of a gateway checkout
// session. The gateway adapter folds provider vocabulary into these
// three values; nothing downstream sees provider strings.
type SessionState string

const (
	SessionPaid    SessionState = "paid"
	SessionFailed  SessionState = "failed"
	SessionPending SessionState = "pending"
)

// CheckoutSession is the gateway's record of a payment attempt. OrderID
// is the correlation id the checkout flow stored in session metadata.
type CheckoutSession struct {
	ID      string
	OrderID string
	State   SessionState
}

// Gateway reads authoritative payment state from the payment provider.
type Gateway interface {
	SessionByID(ctx context.Context, id string) (*CheckoutSession, error)
	SessionByOrderID(ctx context.Context, orderID string) (*CheckoutSession, error)
}

// Notification is a pushed gateway event.
type Notification struct {
	EventType string `json:"eventType"`
	ObjectID  string `json:"objectId"`
	Status    string `json:"status"`
}
