package domain

import (
	"errors"
	"time"
)

// OrderStatus tracks the overall order lifecycle.
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderProcessing     OrderStatus = "processing"
	OrderShipped        OrderStatus = "shipped"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
	OrderShippingFailed OrderStatus = "shipping_failed"
)

// PaymentStatus tracks the gateway-reconciled payment state. Paid is terminal.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// ShippingStatus tracks label and carrier progress. Transitions are
// one-directional except for the failed branch.
type ShippingStatus string

const (
	ShippingNone         ShippingStatus = "none"
	ShippingLabelCreated ShippingStatus = "label_created"
	ShippingInTransit    ShippingStatus = "in_transit"
	ShippingShipped      ShippingStatus = "shipped"
	ShippingDelivered    ShippingStatus = "delivered"
	ShippingFailed       ShippingStatus = "failed"
)

var (
	ErrEmptyCustomer      = errors.New("order requires a customer id")
	ErrNoLineItems        = errors.New("order requires at least one line item")
	ErrNonPositiveTotal   = errors.New("order total must be greater than zero")
	ErrInvalidTransition  = errors.New("shipping status transition not allowed")
	ErrPaymentAlreadySet  = errors.New("payment status is terminal")
	ErrIncompleteShipment = errors.New("shipment facts require id and tracking number")
)

// LineItem is owned by its order and never mutated independently.
type LineItem struct {
	ProductID string
	FlavorID  string
	Quantity  int
	UnitPrice float64
}

// ShipmentFacts groups the fields written together after a successful
// label purchase. Partial facts must never be persisted.
type ShipmentFacts struct {
	ShipmentID     string
	TrackingNumber string
	TrackingURL    string
	LabelURL       string
	Carrier        string
	Service        string
	Cost           float64
}

// Order is the anchor aggregate. The three status fields evolve
// independently as gateway and carrier signals arrive.
type Order struct {
	ID             string
	CustomerID     string
	Total          float64
	OrderStatus    OrderStatus
	PaymentStatus  PaymentStatus
	ShippingStatus ShippingStatus
	RiskScore      int
	RiskFlags      []string
	AutoApproved   bool
	Shipment       ShipmentFacts
	ShippingError  string
	Items          []LineItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewOrder constructs a pending order and enforces creation invariants.
// The risk verdict is stamped once here and never rewritten.
func NewOrder(id, customerID string, total float64, items []LineItem, riskScore int, riskFlags []string, autoApproved bool) (*Order, error) {
	if customerID == "" {
		return nil, ErrEmptyCustomer
	}
	if len(items) == 0 {
		return nil, ErrNoLineItems
	}
	if total <= 0 {
		return nil, ErrNonPositiveTotal
	}
	now := time.Now().UTC()
	return &Order{
		ID:             id,
		CustomerID:     customerID,
		Total:          total,
		OrderStatus:    OrderPending,
		PaymentStatus:  PaymentPending,
		ShippingStatus: ShippingNone,
		RiskScore:      clampScore(riskScore),
		RiskFlags:      append([]string(nil), riskFlags...),
		AutoApproved:   autoApproved,
		Items:          append([]LineItem(nil), items...),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ItemCount sums line quantities.
func (o *Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// MarkPaid transitions payment to paid and confirms the order.
// Returns ErrPaymentAlreadySet unless the payment is still pending.
func (o *Order) MarkPaid() error {
	if o.PaymentStatus != PaymentPending {
		return ErrPaymentAlreadySet
	}
	o.PaymentStatus = PaymentPaid
	o.OrderStatus = OrderConfirmed
	o.touch()
	return nil
}

// MarkPaymentFailed transitions payment to failed unless already settled.
func (o *Order) MarkPaymentFailed() error {
	if o.PaymentStatus != PaymentPending {
		return ErrPaymentAlreadySet
	}
	o.PaymentStatus = PaymentFailed
	o.touch()
	return nil
}

// AttachShipment records the facts from a purchased label and advances
// shipping to label_created. A previous failure message is cleared.
func (o *Order) AttachShipment(facts ShipmentFacts) error {
	if facts.ShipmentID == "" || facts.TrackingNumber == "" {
		return ErrIncompleteShipment
	}
	if err := o.AdvanceShipping(ShippingLabelCreated); err != nil {
		return err
	}
	o.Shipment = facts
	o.ShippingError = ""
	return nil
}

// RecordShippingFailure stores a human-readable error and moves the
// shipping machine to failed. Prior shipment facts stay untouched. A
// repeat failure replaces the stored message.
func (o *Order) RecordShippingFailure(message string) error {
	if o.ShippingStatus != ShippingFailed {
		if err := o.AdvanceShipping(ShippingFailed); err != nil {
			return err
		}
	} else {
		o.touch()
	}
	o.ShippingError = message
	o.OrderStatus = OrderShippingFailed
	return nil
}

// AdvanceShipping applies a guarded shipping transition and mirrors
// terminal carrier states onto the order status.
func (o *Order) AdvanceShipping(next ShippingStatus) error {
	if !CanTransitionShipping(o.ShippingStatus, next) {
		return ErrInvalidTransition
	}
	o.ShippingStatus = next
	switch next {
	case ShippingShipped, ShippingInTransit:
		o.OrderStatus = OrderShipped
	case ShippingDelivered:
		o.OrderStatus = OrderDelivered
	}
	o.touch()
	return nil
}

// CanTransitionShipping reports whether the shipping machine allows
// moving from one state to another. Failed is reachable from any
// non-terminal state; failed may retry back into label_created.
func CanTransitionShipping(from, to ShippingStatus) bool {
	if from == to {
		return false
	}
	switch to {
	case ShippingFailed:
		return from != ShippingDelivered
	case ShippingLabelCreated:
		return from == ShippingNone || from == ShippingFailed
	case ShippingInTransit, ShippingShipped:
		return from == ShippingLabelCreated || from == ShippingInTransit || from == ShippingShipped
	case ShippingDelivered:
		return from == ShippingLabelCreated || from == ShippingInTransit || from == ShippingShipped
	default:
		return false
	}
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
