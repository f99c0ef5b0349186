//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "order-reconciliation-api"
	ConsumerName = "storefront"

	StateOrdersBaseline = "orders baseline"
	StateOrderExists    = "order with id ord-2002 exists"
	StateOrderMissing   = "no order with id ord-9999"
	StatePendingPayment = "order with id ord-2001 has a pending payment"
)

const (
	PendingOrderID  = "ord-2001"
	ExistingOrderID = "ord-2002"
	MissingOrderID  = "ord-9999"

	PactCustomerID = "cust-pact-1"
	PactSessionID  = "cs_pact_2001"
)

const (
	exampleProductID = "prod-licorice-red"
	exampleTotal     = 42.50
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleSnapshotPayload provides stable test data for assessment interactions.
func ExampleSnapshotPayload() map[string]any {
	return map[string]any{
		"orderId":       PendingOrderID,
		"customerId":    PactCustomerID,
		"total":         exampleTotal,
		"paymentStatus": "pending",
		"items": []map[string]any{
			{"productId": exampleProductID, "quantity": 2, "unitPrice": 21.25},
		},
	}
}

// ExamplePaymentEventPayload provides a stable gateway notification.
func ExamplePaymentEventPayload() map[string]any {
	return map[string]any{
		"eventType": "checkout.session.completed",
		"objectId":  PactSessionID,
		"status":    "paid",
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
