package ports

import (
	"context"
	"errors"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/domain"
)

var (
	ErrNotFound         = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

// Repository persists orders. Every status mutation is a single
// conditional write so concurrent webhook and sweep paths cannot
// clobber each other.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByShipmentID(ctx context.Context, shipmentID string) (*domain.Order, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error)
	ListPendingPayments(ctx context.Context) ([]*domain.Order, error)

	// SetPaymentStatusIfPending applies the payment outcome only when the
	// stored payment status is still pending. It reports whether a row
	// changed, so repeated notifications and overlapping sweeps are no-ops.
	SetPaymentStatusIfPending(ctx context.Context, id string, payment domain.PaymentStatus, order domain.OrderStatus) (bool, error)

	// ApplyShipmentFacts atomically records label data and moves shipping
	// to label_created. It must refuse partial facts.
	ApplyShipmentFacts(ctx context.Context, id string, facts domain.ShipmentFacts) error

	// RecordShipmentError stores a failure message without touching any
	// previously persisted shipment facts.
	RecordShipmentError(ctx context.Context, id string, message string) error

	// AdvanceShippingStatus applies a guarded transition and reports
	// whether the row changed.
	AdvanceShippingStatus(ctx context.Context, id string, next domain.ShippingStatus) (bool, error)
}

// CustomerReader resolves customer read models for risk evaluation.
type CustomerReader interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}
