package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/domain"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/ports"
)

type fakeCustomers struct {
	customers map[string]*ports.Customer
	err       error
}

func (f *fakeCustomers) GetCustomer(_ context.Context, id string) (*ports.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	customer, ok := f.customers[id]
	if !ok {
		return nil, ports.ErrCustomerNotFound
	}
	return customer, nil
}

type fakeHistory struct {
	orders map[string][]ports.OrderDigest
	err    error
}

func (f *fakeHistory) CustomerOrders(_ context.Context, customerID string) ([]ports.OrderDigest, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orders[customerID], nil
}

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestEngine(customers *fakeCustomers, history *fakeHistory) *Engine {
	return NewEngine(DefaultConfig(), customers, history, WithClock(func() time.Time { return testNow }))
}

func snapshotWith(total float64, items ...domain.LineItem) domain.Snapshot {
	if len(items) == 0 {
		items = []domain.LineItem{{ProductID: "lic-001", Quantity: 1, UnitPrice: total}}
	}
	return domain.Snapshot{
		OrderID:       "order-1",
		CustomerID:    "cust-1",
		Total:         total,
		PaymentStatus: "pending",
		Items:         items,
	}
}

func TestAssess_NewUnverifiedFirstOrder(t *testing.T) {
	customers := &fakeCustomers{customers: map[string]*ports.Customer{
		"cust-1": {ID: "cust-1", Email: "new@example.com", EmailVerified: false, CreatedAt: testNow.Add(-2 * time.Hour)},
	}}
	history := &fakeHistory{orders: map[string][]ports.OrderDigest{}}
	engine := newTestEngine(customers, history)

	verdict := engine.Assess(context.Background(), snapshotWith(50))

	require.Contains(t, verdict.Flags, domain.FlagNewUser24h)
	require.Contains(t, verdict.Flags, domain.FlagEmailNotVerified)
	require.Contains(t, verdict.Flags, domain.FlagFirstOrder)
	require.GreaterOrEqual(t, verdict.Score, 45)
	require.False(t, verdict.AutoApprove)
	require.Contains(t, verdict.Recommendations, domain.RecommendEmailVerification)
}

func TestAssess_EstablishedCustomerAutoApproves(t *testing.T) {
	customers := &fakeCustomers{customers: map[string]*ports.Customer{
		"cust-1": {ID: "cust-1", Email: "steady@example.com", EmailVerified: true, CreatedAt: testNow.AddDate(-2, 0, 0)},
	}}
	var prior []ports.OrderDigest
	for i := 0; i < 4; i++ {
		prior = append(prior, ports.OrderDigest{
			ID:            fmt.Sprintf("old-%d", i),
			Total:         30,
			ItemCount:     1,
			PaymentStatus: "paid",
			OrderStatus:   "delivered",
			CreatedAt:     testNow.AddDate(0, -i-1, 0),
		})
	}
	history := &fakeHistory{orders: map[string][]ports.OrderDigest{"cust-1": prior}}
	engine := newTestEngine(customers, history)

	snapshot := snapshotWith(30)
	snapshot.PaymentStatus = "paid"
	verdict := engine.Assess(context.Background(), snapshot)

	require.LessOrEqual(t, verdict.Score, 10)
	require.True(t, verdict.AutoApprove)
	require.True(t, verdict.Valid)
}

func TestAssess_ScoreClampedAndBounded(t *testing.T) {
	customers := &fakeCustomers{customers: map[string]*ports.Customer{
		"cust-1": {ID: "cust-1", EmailVerified: false, CreatedAt: testNow.Add(-time.Hour)},
	}}
	var burst []ports.OrderDigest
	for i := 0; i < 25; i++ {
		burst = append(burst, ports.OrderDigest{
			ID:            fmt.Sprintf("burst-%d", i),
			Total:         2000,
			ItemCount:     2,
			PaymentStatus: "failed",
			OrderStatus:   "cancelled",
			CreatedAt:     testNow.Add(-time.Duration(i) * time.Minute),
		})
	}
	history := &fakeHistory{orders: map[string][]ports.OrderDigest{"cust-1": burst}}
	engine := newTestEngine(customers, history)

	snapshot := snapshotWith(2000)
	snapshot.PaymentStatus = "failed"
	verdict := engine.Assess(context.Background(), snapshot)

	require.Equal(t, 100, verdict.Score)
	require.False(t, verdict.AutoApprove)
	require.False(t, verdict.Valid)
	require.Contains(t, verdict.Recommendations, domain.RecommendManualReview)
}

func TestAssess_InvariantHolds(t *testing.T) {
	cases := []struct {
		name     string
		verified bool
		age      time.Duration
		total    float64
	}{
		{name: "tiny order new account", verified: false, age: time.Hour, total: 5},
		{name: "large order old account", verified: true, age: 24 * 365 * time.Hour, total: 5000},
		{name: "mid order young account", verified: false, age: 3 * 24 * time.Hour, total: 600},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			customers := &fakeCustomers{customers: map[string]*ports.Customer{
				"cust-1": {ID: "cust-1", EmailVerified: tc.verified, CreatedAt: testNow.Add(-tc.age)},
			}}
			engine := newTestEngine(customers, &fakeHistory{})

			verdict := engine.Assess(context.Background(), snapshotWith(tc.total))

			require.GreaterOrEqual(t, verdict.Score, 0)
			require.LessOrEqual(t, verdict.Score, 100)
			if verdict.AutoApprove {
				require.LessOrEqual(t, verdict.Score, 30)
			}
			if !verdict.Valid {
				require.GreaterOrEqual(t, verdict.Score, 70)
			}
		})
	}
}

func TestAssess_EvaluatorFailureDegrades(t *testing.T) {
	customers := &fakeCustomers{err: errors.New("directory unavailable")}
	history := &fakeHistory{err: errors.New("orders table unavailable")}
	engine := newTestEngine(customers, history)

	verdict := engine.Assess(context.Background(), snapshotWith(50))

	require.Contains(t, verdict.Flags, domain.FlagAccountCheckError)
	require.Contains(t, verdict.Flags, domain.FlagHistoryCheckError)
	require.Contains(t, verdict.Flags, domain.FlagValueCheckError)
	require.Contains(t, verdict.Flags, domain.FlagFrequencyCheckError)
	require.Contains(t, verdict.Flags, domain.FlagPatternCheckError)
	// Five failed checks at the default penalty, plus pending payment.
	require.Equal(t, 5*DefaultConfig().CheckErrorPenalty+DefaultConfig().Weights.PaymentPending, verdict.Score)
}

func TestAssess_PanicYieldsConservativeVerdict(t *testing.T) {
	engine := newTestEngine(nil, &fakeHistory{})

	// A nil collaborator is a wiring fault, not an evaluator data error:
	// the resulting panic must degrade to the conservative verdict.
	verdict := engine.Assess(context.Background(), snapshotWith(10))

	require.Equal(t, 100, verdict.Score)
	require.Equal(t, []string{domain.FlagVerificationError}, verdict.Flags)
	require.False(t, verdict.AutoApprove)
	require.False(t, verdict.Valid)
}

func TestAssess_DuplicatePatternAndFrequency(t *testing.T) {
	customers := &fakeCustomers{customers: map[string]*ports.Customer{
		"cust-1": {ID: "cust-1", EmailVerified: true, CreatedAt: testNow.AddDate(-1, 0, 0)},
	}}
	var recent []ports.OrderDigest
	for i := 0; i < 6; i++ {
		recent = append(recent, ports.OrderDigest{
			ID:            fmt.Sprintf("recent-%d", i),
			Total:         50,
			ItemCount:     1,
			PaymentStatus: "pending",
			OrderStatus:   "pending",
			CreatedAt:     testNow.Add(-time.Duration(i) * time.Minute),
		})
	}
	history := &fakeHistory{orders: map[string][]ports.OrderDigest{"cust-1": recent}}
	engine := newTestEngine(customers, history)

	verdict := engine.Assess(context.Background(), snapshotWith(50))

	require.Contains(t, verdict.Flags, domain.FlagRapidRepeatOrders)
	require.Contains(t, verdict.Flags, domain.FlagDuplicatePattern)
	require.Contains(t, verdict.Flags, domain.FlagElevatedFrequencyHour)
	require.Contains(t, verdict.Recommendations, domain.RecommendRateLimit)
}

func TestAssess_ValueDeviationFromPaidHistory(t *testing.T) {
	customers := &fakeCustomers{customers: map[string]*ports.Customer{
		"cust-1": {ID: "cust-1", EmailVerified: true, CreatedAt: testNow.AddDate(-1, 0, 0)},
	}}
	history := &fakeHistory{orders: map[string][]ports.OrderDigest{"cust-1": {
		{ID: "old-1", Total: 40, ItemCount: 1, PaymentStatus: "paid", OrderStatus: "delivered", CreatedAt: testNow.AddDate(0, -2, 0)},
		{ID: "old-2", Total: 60, ItemCount: 1, PaymentStatus: "paid", OrderStatus: "delivered", CreatedAt: testNow.AddDate(0, -1, 0)},
	}}}
	engine := newTestEngine(customers, history)

	verdict := engine.Assess(context.Background(), snapshotWith(200))

	require.Contains(t, verdict.Flags, domain.FlagAboveCustomerAverage)
	require.Contains(t, verdict.Flags, domain.FlagAboveCustomerMax)
	require.Contains(t, verdict.Recommendations, domain.RecommendAccountVerification)
}

func TestBatchAssess_CollectsEveryOrder(t *testing.T) {
	customers := &fakeCustomers{customers: map[string]*ports.Customer{
		"cust-1": {ID: "cust-1", EmailVerified: true, CreatedAt: testNow.AddDate(-1, 0, 0)},
	}}
	engine := newTestEngine(customers, &fakeHistory{})

	var snapshots []domain.Snapshot
	for i := 0; i < 120; i++ {
		snapshots = append(snapshots, domain.Snapshot{
			OrderID:       fmt.Sprintf("order-%d", i),
			CustomerID:    "cust-1",
			Total:         25,
			PaymentStatus: "pending",
			Items:         []domain.LineItem{{ProductID: "lic-001", Quantity: 1, UnitPrice: 25}},
		})
	}
	results := engine.BatchAssess(context.Background(), snapshots)

	require.Len(t, results, 120)
	for _, snapshot := range snapshots {
		verdict, ok := results[snapshot.OrderID]
		require.True(t, ok)
		require.Equal(t, snapshot.OrderID, verdict.OrderID)
	}
}

func TestBatchAssess_FailuresDoNotAbortBatch(t *testing.T) {
	customers := &fakeCustomers{err: errors.New("directory down")}
	engine := newTestEngine(customers, &fakeHistory{err: errors.New("history down")})

	snapshots := []domain.Snapshot{
		snapshotWith(10),
		{OrderID: "order-2", CustomerID: "cust-2", Total: 20, PaymentStatus: "pending",
			Items: []domain.LineItem{{ProductID: "lic-002", Quantity: 1, UnitPrice: 20}}},
	}
	results := engine.BatchAssess(context.Background(), snapshots)

	require.Len(t, results, 2)
	for _, verdict := range results {
		require.False(t, verdict.AutoApprove)
	}
}
