package shipping

import (
	"go.temporal.io/sdk/workflow"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/domain"
	shippingports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/ports"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/durable/temporal/sequences"
)

const (
	// LabelPurchaseWorkflowName is the public identifier for registering
	// the workflow.
	LabelPurchaseWorkflowName = "shipping.workflows.LabelPurchase"
	// LabelPurchaseTaskQueue is the queue consumed by the worker
	// processing shipping workflows.
	LabelPurchaseTaskQueue = "LABEL_PURCHASE"
)

// LabelPurchaseWorkflowInput captures the payload required to buy a
// label for an order.
type LabelPurchaseWorkflowInput struct {
	Request shippingports.LabelRequest
	TraceID string
}

// LabelPurchaseWorkflow orchestrates the label purchase for one order.
func LabelPurchaseWorkflow(ctx workflow.Context, input LabelPurchaseWorkflowInput) (domain.Transaction, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("LabelPurchaseWorkflow started", withTraceID(input.TraceID, "orderId", input.Request.OrderID)...)
	tx, err := sequences.RunLabelPurchaseSequence(ctx, input.Request)
	if err != nil {
		logger.Error("LabelPurchaseWorkflow failed", withTraceID(input.TraceID, "orderId", input.Request.OrderID, "error", err)...)
		return tx, err
	}
	logger.Info("LabelPurchaseWorkflow completed", withTraceID(input.TraceID, "orderId", input.Request.OrderID, "transactionId", tx.ID)...)
	return tx, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
