package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/domain"
	shippingports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/ports"
	shippingactivities "github.com/devdazzlee/Licorice4Good-sub001/internal/durable/temporal/activities/shipping"
)

// RunLabelPurchaseSequence executes the single activity that buys a
// label for an order. The purchase is not retried on failure: a
// declined or errored transaction is terminal for the attempt and is
// already recorded on the order by the orchestrator.
func RunLabelPurchaseSequence(ctx workflow.Context, req shippingports.LabelRequest) (domain.Transaction, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("label purchase sequence started", "orderId", req.OrderID)

	purchaseOptions := workflow.ActivityOptions{
		// The activity blocks through the provider's queued-settle delay.
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}

	var tx domain.Transaction
	err := workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, purchaseOptions),
		shippingactivities.PurchaseLabelActivityName,
		req,
	).Get(ctx, &tx)
	if err != nil {
		logger.Error("label purchase sequence failed", "orderId", req.OrderID, "error", err)
		return tx, err
	}
	logger.Info("label purchase sequence completed", "orderId", req.OrderID, "transactionId", tx.ID)
	return tx, nil
}
