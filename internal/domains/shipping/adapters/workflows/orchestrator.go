package workflows

import (
	"context"
	"errors"
	"fmt"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/domain"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/ports"
	labelworkflows "github.com/devdazzlee/Licorice4Good-sub001/internal/durable/temporal/workflows/shipping"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalLabelWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineLabelWorkflows)(nil)
)

// TemporalLabelWorkflows starts label purchases on a Temporal cluster.
type TemporalLabelWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalLabelWorkflows wires a Temporal client into the
// orchestrator.
func NewTemporalLabelWorkflows(c client.Client) *TemporalLabelWorkflows {
	return &TemporalLabelWorkflows{client: c, taskQueue: labelworkflows.LabelPurchaseTaskQueue}
}

// PurchaseLabel starts the durable label-purchase workflow. The
// workflow ID is derived from the order id, so a duplicate submission
// attaches to the in-flight run instead of buying a second label.
func (o *TemporalLabelWorkflows) PurchaseLabel(ctx context.Context, req ports.LabelRequest) (domain.Transaction, error) {
	if o == nil || o.client == nil {
		return domain.Transaction{}, errors.New("temporal label workflows not configured")
	}
	workflowID := fmt.Sprintf("label-purchase-%s", req.OrderID)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	input := labelworkflows.LabelPurchaseWorkflowInput{Request: req, TraceID: workflowTraceID(ctx)}
	run, err := o.client.ExecuteWorkflow(ctx, options, labelworkflows.LabelPurchaseWorkflow, input)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var tx domain.Transaction
			if err := existingRun.Get(ctx, &tx); err != nil {
				return domain.Transaction{}, err
			}
			return tx, nil
		}
		return domain.Transaction{}, err
	}
	var tx domain.Transaction
	if err := run.Get(ctx, &tx); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// InlineLabelWorkflows executes the orchestrator directly without
// Temporal, useful for tests or dev fallbacks.
type InlineLabelWorkflows struct {
	fulfillment ports.Service
}

// NewInlineLabelWorkflows wraps the fulfillment orchestrator for
// synchronous execution.
func NewInlineLabelWorkflows(fulfillment ports.Service) *InlineLabelWorkflows {
	return &InlineLabelWorkflows{fulfillment: fulfillment}
}

// PurchaseLabel delegates to the orchestrator without durable
// execution.
func (o *InlineLabelWorkflows) PurchaseLabel(ctx context.Context, req ports.LabelRequest) (domain.Transaction, error) {
	if o == nil || o.fulfillment == nil {
		return domain.Transaction{}, errors.New("inline label workflows not configured")
	}
	return o.fulfillment.PurchaseLabel(ctx, req)
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() || !spanCtx.TraceID().IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
