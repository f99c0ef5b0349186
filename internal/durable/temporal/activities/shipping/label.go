package shipping

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/domain"
	shippingports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/ports"
)

// PurchaseLabelActivityName buys a label and persists shipment facts.
const PurchaseLabelActivityName = "shipping.activities.PurchaseLabel"

// Activities groups activities that operate on the shipping bounded
// context.
type Activities struct {
	fulfillment shippingports.Service
}

// NewActivities wires the fulfillment orchestrator into the Temporal
// activities bundle.
func NewActivities(fulfillment shippingports.Service) *Activities {
	return &Activities{fulfillment: fulfillment}
}

// PurchaseLabel runs the label purchase for an order. The orchestrator
// itself records failures on the order, so a returned error carries no
// retry obligation.
func (a *Activities) PurchaseLabel(ctx context.Context, req shippingports.LabelRequest) (domain.Transaction, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.fulfillment == nil {
		logger.Error("label purchase activity not initialized", "orderId", req.OrderID)
		return domain.Transaction{}, errors.New("label purchase activity not initialized")
	}
	logger.Info("PurchaseLabel activity started", "orderId", req.OrderID)
	tx, err := a.fulfillment.PurchaseLabel(ctx, req)
	if err != nil {
		logger.Error("PurchaseLabel activity failed", "orderId", req.OrderID, "error", err)
		return tx, err
	}
	logger.Info("PurchaseLabel activity completed", "orderId", req.OrderID, "transactionId", tx.ID)
	return tx, nil
}
