package ports

import (
	"context"
	"errors"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/domain"
)

var (
	// ErrShipmentNotFound is returned when the provider has no record
	// for the requested shipment or transaction.
	ErrShipmentNotFound = errors.New("shipment not found")
	// ErrInvalidAddress is returned when the provider rejects the
	// destination address.
	ErrInvalidAddress = errors.New("invalid shipping address")
)

// Shipment is the provider's quoted shipment: its id plus the carrier
// options available against it.
type Shipment struct {
	ID    string
	Rates []domain.Rate
}

// Provider is the boundary to the label provider.
type Provider interface {
	ValidateAddress(ctx context.Context, addr domain.Address) (domain.Address, error)
	CreateShipment(ctx context.Context, from, to domain.Address, parcel domain.Parcel) (Shipment, error)
	PurchaseLabel(ctx context.Context, rateID string) (domain.Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (domain.Transaction, error)
}

// Notification is a pushed transaction or tracking event.
type Notification struct {
	EventType      string `json:"eventType"`
	ObjectID       string `json:"objectId"`
	TrackingNumber string `json:"trackingNumber"`
	Status         string `json:"status"`
}

// LabelRequest asks the orchestrator to buy a label for an order. When
// RateID is empty the cheapest quoted rate is purchased.
type LabelRequest struct {
	OrderID string
	To      domain.Address
	Parcel  domain.Parcel
	RateID  string
}

// Service is the fulfillment surface consumed by handlers, workers,
// and the durable workflow activities.
type Service interface {
	// GetRates quotes carrier options for a destination. Pure query, no
	// order mutation.
	GetRates(ctx context.Context, to domain.Address, parcel domain.Parcel) ([]domain.Rate, error)

	// PurchaseLabel buys a label and persists the shipment facts on the
	// order. A provider-side terminal error leaves all prior shipment
	// facts untouched.
	PurchaseLabel(ctx context.Context, req LabelRequest) (domain.Transaction, error)

	// ReconcileShipment applies a pushed transaction or tracking event
	// to the matching order. Unknown event types are ignored.
	ReconcileShipment(ctx context.Context, note Notification) error
}

// WorkflowOrchestrator runs the label purchase either inline or as a
// durable workflow.
type WorkflowOrchestrator interface {
	PurchaseLabel(ctx context.Context, req LabelRequest) (domain.Transaction, error)
}
