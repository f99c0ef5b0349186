package ports

import (
	"context"
	"time"
)

// SweepReport summarizes one pull-based reconciliation pass.
type SweepReport struct {
	Fixed        int
	Failed       int
	StillPending int
}

// Service is the payment reconciliation contract exposed to the webhook
// receiver and the operational sweep job.
type Service interface {
	ReconcileNotification(ctx context.Context, n Notification) error
	SweepPendingPayments(ctx context.Context, staleWindow time.Duration) (SweepReport, error)
}
