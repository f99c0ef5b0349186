package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ordersmemory "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/adapters/memory"
	ordersdomain "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/domain"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/ports"
)

type fakeGateway struct {
	byID      map[string]*ports.CheckoutSession
	byOrderID map[string]*ports.CheckoutSession
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		byID:      map[string]*ports.CheckoutSession{},
		byOrderID: map[string]*ports.CheckoutSession{},
	}
}

func (f *fakeGateway) put(session *ports.CheckoutSession) {
	f.byID[session.ID] = session
	if session.OrderID != "" {
		f.byOrderID[session.OrderID] = session
	}
}

func (f *fakeGateway) SessionByID(_ context.Context, id string) (*ports.CheckoutSession, error) {
	if session, ok := f.byID[id]; ok {
		return session, nil
	}
	return nil, ports.ErrSessionNotFound
}

func (f *fakeGateway) SessionByOrderID(_ context.Context, orderID string) (*ports.CheckoutSession, error) {
	if session, ok := f.byOrderID[orderID]; ok {
		return session, nil
	}
	return nil, ports.ErrSessionNotFound
}

func seedOrder(t *testing.T, repo *ordersmemory.Repository, id string, age time.Duration) *ordersdomain.Order {
	t.Helper()
	order, err := ordersdomain.NewOrder(id, "cust-1", 42,
		[]ordersdomain.LineItem{{ProductID: "lic-001", Quantity: 1, UnitPrice: 42}}, 10, nil, true)
	require.NoError(t, err)
	order.CreatedAt = time.Now().UTC().Add(-age)
	saved, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return saved
}

func TestReconcileNotification_PaidSessionConfirmsOrder(t *testing.T) {
	repo := ordersmemory.NewRepository()
	gateway := newFakeGateway()
	seedOrder(t, repo, "order-x", time.Minute)
	gateway.put(&ports.CheckoutSession{ID: "cs_1", OrderID: "order-x", State: ports.SessionPaid})
	reconciler := NewReconciler(repo, gateway)

	err := reconciler.ReconcileNotification(context.Background(),
		ports.Notification{EventType: EventSessionCompleted, ObjectID: "cs_1", Status: "paid"})
	require.NoError(t, err)

	order, err := repo.GetByID(context.Background(), "order-x")
	require.NoError(t, err)
	require.Equal(t, ordersdomain.PaymentPaid, order.PaymentStatus)
	require.Equal(t, ordersdomain.OrderConfirmed, order.OrderStatus)
}

func TestReconcileNotification_IsIdempotent(t *testing.T) {
	repo := ordersmemory.NewRepository()
	gateway := newFakeGateway()
	seedOrder(t, repo, "order-x", time.Minute)
	gateway.put(&ports.CheckoutSession{ID: "cs_1", OrderID: "order-x", State: ports.SessionPaid})
	reconciler := NewReconciler(repo, gateway)

	notification := ports.Notification{EventType: EventSessionCompleted, ObjectID: "cs_1", Status: "paid"}
	require.NoError(t, reconciler.ReconcileNotification(context.Background(), notification))
	first, err := repo.GetByID(context.Background(), "order-x")
	require.NoError(t, err)

	require.NoError(t, reconciler.ReconcileNotification(context.Background(), notification))
	second, err := repo.GetByID(context.Background(), "order-x")
	require.NoError(t, err)

	require.Equal(t, first.PaymentStatus, second.PaymentStatus)
	require.Equal(t, first.OrderStatus, second.OrderStatus)
	require.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestReconcileNotification_PaidIsNeverDowngraded(t *testing.T) {
	repo := ordersmemory.NewRepository()
	gateway := newFakeGateway()
	seedOrder(t, repo, "order-x", time.Minute)
	session := &ports.CheckoutSession{ID: "cs_1", OrderID: "order-x", State: ports.SessionPaid}
	gateway.put(session)
	reconciler := NewReconciler(repo, gateway)

	require.NoError(t, reconciler.ReconcileNotification(context.Background(),
		ports.Notification{EventType: EventSessionCompleted, ObjectID: "cs_1"}))

	// A late failure event for the same, now-expired session must not win.
	session.State = ports.SessionFailed
	require.NoError(t, reconciler.ReconcileNotification(context.Background(),
		ports.Notification{EventType: EventSessionExpired, ObjectID: "cs_1"}))

	order, err := repo.GetByID(context.Background(), "order-x")
	require.NoError(t, err)
	require.Equal(t, ordersdomain.PaymentPaid, order.PaymentStatus)
}

func TestReconcileNotification_UnknownEventIgnored(t *testing.T) {
	repo := ordersmemory.NewRepository()
	gateway := newFakeGateway()
	seedOrder(t, repo, "order-x", time.Minute)
	reconciler := NewReconciler(repo, gateway)

	err := reconciler.ReconcileNotification(context.Background(),
		ports.Notification{EventType: "invoice.finalized", ObjectID: "in_1"})
	require.NoError(t, err)

	order, err := repo.GetByID(context.Background(), "order-x")
	require.NoError(t, err)
	require.Equal(t, ordersdomain.PaymentPending, order.PaymentStatus)
}

func TestSweep_StaleOrderWithoutSessionFails(t *testing.T) {
	repo := ordersmemory.NewRepository()
	gateway := newFakeGateway()
	seedOrder(t, repo, "order-stale", 30*time.Hour)
	reconciler := NewReconciler(repo, gateway)

	report, err := reconciler.SweepPendingPayments(context.Background(), DefaultStaleWindow)
	require.NoError(t, err)
	require.Equal(t, ports.SweepReport{Failed: 1}, report)

	order, err := repo.GetByID(context.Background(), "order-stale")
	require.NoError(t, err)
	require.Equal(t, ordersdomain.PaymentFailed, order.PaymentStatus)
}

func TestSweep_RecentOrderWithoutSessionStaysPending(t *testing.T) {
	repo := ordersmemory.NewRepository()
	gateway := newFakeGateway()
	seedOrder(t, repo, "order-recent", time.Hour)
	reconciler := NewReconciler(repo, gateway)

	report, err := reconciler.SweepPendingPayments(context.Background(), DefaultStaleWindow)
	require.NoError(t, err)
	require.Equal(t, ports.SweepReport{StillPending: 1}, report)

	order, err := repo.GetByID(context.Background(), "order-recent")
	require.NoError(t, err)
	require.Equal(t, ordersdomain.PaymentPending, order.PaymentStatus)
}

func TestSweep_ResolvesMixedOutcomes(t *testing.T) {
	repo := ordersmemory.NewRepository()
	gateway := newFakeGateway()
	seedOrder(t, repo, "order-paid", time.Hour)
	seedOrder(t, repo, "order-failed", time.Hour)
	seedOrder(t, repo, "order-open", time.Hour)
	gateway.put(&ports.CheckoutSession{ID: "cs_paid", OrderID: "order-paid", State: ports.SessionPaid})
	gateway.put(&ports.CheckoutSession{ID: "cs_failed", OrderID: "order-failed", State: ports.SessionFailed})
	gateway.put(&ports.CheckoutSession{ID: "cs_open", OrderID: "order-open", State: ports.SessionPending})
	reconciler := NewReconciler(repo, gateway)

	report, err := reconciler.SweepPendingPayments(context.Background(), DefaultStaleWindow)
	require.NoError(t, err)
	require.Equal(t, ports.SweepReport{Fixed: 1, Failed: 1, StillPending: 1}, report)

	paid, err := repo.GetByID(context.Background(), "order-paid")
	require.NoError(t, err)
	require.Equal(t, ordersdomain.OrderConfirmed, paid.OrderStatus)
}

func TestSweep_SecondRunDoesNotDoubleCount(t *testing.T) {
	repo := ordersmemory.NewRepository()
	gateway := newFakeGateway()
	seedOrder(t, repo, "order-paid", time.Hour)
	seedOrder(t, repo, "order-open", time.Hour)
	gateway.put(&ports.CheckoutSession{ID: "cs_paid", OrderID: "order-paid", State: ports.SessionPaid})
	gateway.put(&ports.CheckoutSession{ID: "cs_open", OrderID: "order-open", State: ports.SessionPending})
	reconciler := NewReconciler(repo, gateway)

	first, err := reconciler.SweepPendingPayments(context.Background(), DefaultStaleWindow)
	require.NoError(t, err)
	require.Equal(t, ports.SweepReport{Fixed: 1, StillPending: 1}, first)

	second, err := reconciler.SweepPendingPayments(context.Background(), DefaultStaleWindow)
	require.NoError(t, err)
	require.Equal(t, ports.SweepReport{StillPending: 1}, second)

	third, err := reconciler.SweepPendingPayments(context.Background(), DefaultStaleWindow)
	require.NoError(t, err)
	require.Equal(t, second, third)
}
