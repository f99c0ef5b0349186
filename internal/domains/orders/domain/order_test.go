package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder("ord-1", "cust-1", 42.50, []LineItem{
		{ProductID: "prod-1", Quantity: 2, UnitPrice: 21.25},
	}, 12, []string{"first_order"}, true)
	require.NoError(t, err)
	return order
}

func TestNewOrder_EnforcesCreationInvariants(t *testing.T) {
	items := []LineItem{{ProductID: "prod-1", Quantity: 1, UnitPrice: 5}}

	_, err := NewOrder("ord-1", "", 5, items, 0, nil, false)
	assert.ErrorIs(t, err, ErrEmptyCustomer)

	_, err = NewOrder("ord-1", "cust-1", 5, nil, 0, nil, false)
	assert.ErrorIs(t, err, ErrNoLineItems)

	_, err = NewOrder("ord-1", "cust-1", 0, items, 0, nil, false)
	assert.ErrorIs(t, err, ErrNonPositiveTotal)

	order, err := NewOrder("ord-1", "cust-1", 5, items, 140, nil, false)
	require.NoError(t, err)
	assert.Equal(t, OrderPending, order.OrderStatus)
	assert.Equal(t, PaymentPending, order.PaymentStatus)
	assert.Equal(t, ShippingNone, order.ShippingStatus)
	assert.Equal(t, 100, order.RiskScore, "score is clamped to the 0-100 band")
}

func TestMarkPaid_ConfirmsOrderOnce(t *testing.T) {
	order := newTestOrder(t)

	require.NoError(t, order.MarkPaid())
	assert.Equal(t, PaymentPaid, order.PaymentStatus)
	assert.Equal(t, OrderConfirmed, order.OrderStatus)

	// Paid is terminal; late gateway events cannot rewrite it.
	assert.ErrorIs(t, order.MarkPaid(), ErrPaymentAlreadySet)
	assert.ErrorIs(t, order.MarkPaymentFailed(), ErrPaymentAlreadySet)
	assert.Equal(t, PaymentPaid, order.PaymentStatus)
}

func TestMarkPaymentFailed_LeavesOrderStatusAlone(t *testing.T) {
	order := newTestOrder(t)

	require.NoError(t, order.MarkPaymentFailed())
	assert.Equal(t, PaymentFailed, order.PaymentStatus)
	assert.Equal(t, OrderPending, order.OrderStatus)

	assert.ErrorIs(t, order.MarkPaid(), ErrPaymentAlreadySet)
}

func TestAttachShipment_RequiresCompleteFacts(t *testing.T) {
	order := newTestOrder(t)

	err := order.AttachShipment(ShipmentFacts{ShipmentID: "shp-1"})
	assert.ErrorIs(t, err, ErrIncompleteShipment)
	err = order.AttachShipment(ShipmentFacts{TrackingNumber: "1Z"})
	assert.ErrorIs(t, err, ErrIncompleteShipment)
	assert.Equal(t, ShippingNone, order.ShippingStatus)

	facts := ShipmentFacts{ShipmentID: "shp-1", TrackingNumber: "1Z", Carrier: "UPS"}
	require.NoError(t, order.AttachShipment(facts))
	assert.Equal(t, ShippingLabelCreated, order.ShippingStatus)
	assert.Equal(t, facts, order.Shipment)
}

func TestRecordShippingFailure_AllowsRetryAndKeepsFacts(t *testing.T) {
	order := newTestOrder(t)
	facts := ShipmentFacts{ShipmentID: "shp-1", TrackingNumber: "1Z"}
	require.NoError(t, order.AttachShipment(facts))

	require.NoError(t, order.RecordShippingFailure("carrier rejected label"))
	assert.Equal(t, ShippingFailed, order.ShippingStatus)
	assert.Equal(t, OrderShippingFailed, order.OrderStatus)
	assert.Equal(t, "carrier rejected label", order.ShippingError)
	assert.Equal(t, facts, order.Shipment, "earlier facts survive a failure")

	// A repeat failure replaces the message without a transition.
	require.NoError(t, order.RecordShippingFailure("second attempt failed"))
	assert.Equal(t, "second attempt failed", order.ShippingError)

	// Retry: a fresh label reopens the happy path and clears the error.
	retry := ShipmentFacts{ShipmentID: "shp-2", TrackingNumber: "9400"}
	require.NoError(t, order.AttachShipment(retry))
	assert.Equal(t, ShippingLabelCreated, order.ShippingStatus)
	assert.Empty(t, order.ShippingError)
	assert.Equal(t, retry, order.Shipment)
}

func TestAdvanceShipping_MirrorsCarrierProgress(t *testing.T) {
	order := newTestOrder(t)
	require.NoError(t, order.AttachShipment(ShipmentFacts{ShipmentID: "shp-1", TrackingNumber: "1Z"}))

	require.NoError(t, order.AdvanceShipping(ShippingInTransit))
	assert.Equal(t, OrderShipped, order.OrderStatus)

	require.NoError(t, order.AdvanceShipping(ShippingDelivered))
	assert.Equal(t, OrderDelivered, order.OrderStatus)

	// Delivered is terminal for both machines.
	assert.ErrorIs(t, order.AdvanceShipping(ShippingInTransit), ErrInvalidTransition)
	assert.ErrorIs(t, order.AdvanceShipping(ShippingFailed), ErrInvalidTransition)
	assert.ErrorIs(t, order.RecordShippingFailure("too late"), ErrInvalidTransition)
}

func TestCanTransitionShipping(t *testing.T) {
	cases := []struct {
		name string
		from ShippingStatus
		to   ShippingStatus
		want bool
	}{
		{"label from none", ShippingNone, ShippingLabelCreated, true},
		{"label retry after failure", ShippingFailed, ShippingLabelCreated, true},
		{"label may not be re-created", ShippingInTransit, ShippingLabelCreated, false},
		{"transit from label", ShippingLabelCreated, ShippingInTransit, true},
		{"skip straight to delivered", ShippingLabelCreated, ShippingDelivered, true},
		{"carrier events interleave", ShippingShipped, ShippingInTransit, true},
		{"duplicate event", ShippingInTransit, ShippingInTransit, false},
		{"no regression from delivered", ShippingDelivered, ShippingInTransit, false},
		{"failure from any live state", ShippingShipped, ShippingFailed, true},
		{"failure after delivery", ShippingDelivered, ShippingFailed, false},
		{"transit before label", ShippingNone, ShippingInTransit, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransitionShipping(tc.from, tc.to))
		})
	}
}

func TestItemCount(t *testing.T) {
	order, err := NewOrder("ord-1", "cust-1", 30, []LineItem{
		{ProductID: "prod-1", Quantity: 2, UnitPrice: 5},
		{ProductID: "prod-2", Quantity: 3, UnitPrice: 6.67},
	}, 0, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 5, order.ItemCount())
}
