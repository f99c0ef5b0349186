package ports

import (
	"context"
	"errors"
	"time"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/domain"
)

var ErrCustomerNotFound = errors.New("customer not found for risk evaluation")

// Customer is the slice of the account record the evaluators read.
type Customer struct {
	ID            string
	Email         string
	EmailVerified bool
	CreatedAt     time.Time
}

// OrderDigest is the minimal view of a historical order needed for
// history, frequency, and pattern evaluation.
type OrderDigest struct {
	ID            string
	Total         float64
	ItemCount     int
	PaymentStatus string
	OrderStatus   string
	CreatedAt     time.Time
}

// CustomerReader resolves the customer behind a snapshot.
type CustomerReader interface {
	GetCustomer(ctx context.Context, id string) (*Customer, error)
}

// HistoryReader lists a customer's prior orders, newest or oldest first;
// evaluators do their own windowing.
type HistoryReader interface {
	CustomerOrders(ctx context.Context, customerID string) ([]OrderDigest, error)
}

// Assessor is the scoring contract consumed by the order-creation flow.
// Assess never fails: any internal fault degrades to a conservative
// high-risk verdict.
type Assessor interface {
	Assess(ctx context.Context, snapshot domain.Snapshot) domain.Assessment
	BatchAssess(ctx context.Context, snapshots []domain.Snapshot) map[string]domain.Assessment
}
