//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	pacttest "github.com/devdazzlee/Licorice4Good-sub001/test/pact"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/app/api"
	ordersmemory "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/adapters/memory"
	ordersdomain "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/domain"
	paymentsobs "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/adapters/observability"
	paymentsapp "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/application"
	paymentsports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/ports"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/adapters/orderhistory"
	riskobs "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/adapters/observability"
	riskapp "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/application"
	shippingobs "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/adapters/observability"
	shippingworkflows "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/adapters/workflows"
	shippingapp "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/application"
	shippingdomain "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/domain"
	shippingports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/ports"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"
)

func TestReconciliationProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateOrdersBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			return nil, nil
		},
		pacttest.StatePendingPayment: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			if setup {
				app.seedOrder(t, pacttest.PendingOrderID)
			}
			return nil, nil
		},
		pacttest.StateOrderExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			if setup {
				app.seedOrder(t, pacttest.ExistingOrderID)
			}
			return nil, nil
		},
		pacttest.StateOrderMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	repo   *ordersmemory.Repository
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	orderRepo := ordersmemory.NewRepository()
	customers := ordersmemory.NewCustomerStore()
	customers.Put(&ordersdomain.Customer{
		ID:            pacttest.PactCustomerID,
		Email:         "pact.user@example.com",
		EmailVerified: true,
		CreatedAt:     time.Now().Add(-90 * 24 * time.Hour),
	})

	history := orderhistory.NewReader(orderRepo, customers)
	assessor := riskobs.New(riskapp.NewEngine(riskapp.DefaultConfig(), history, history))

	gateway := &staticGateway{sessions: map[string]*paymentsports.CheckoutSession{
		pacttest.PactSessionID: {
			ID:      pacttest.PactSessionID,
			OrderID: pacttest.PendingOrderID,
			State:   paymentsports.SessionPaid,
		},
	}}
	payments := paymentsobs.New(paymentsapp.NewReconciler(orderRepo, gateway))

	fulfillment := shippingobs.New(shippingapp.New(orderRepo, &staticShippingProvider{}, shippingdomain.Address{
		Name:    "Pact Warehouse",
		Street1: "215 Clayton St",
		City:    "San Francisco",
		State:   "CA",
		Zip:     "94117",
		Country: "US",
	}))
	labels := shippingworkflows.NewInlineLabelWorkflows(fulfillment)

	handlers := api.NewHandlers(orderRepo, assessor, payments, fulfillment, labels, paymentsapp.DefaultStaleWindow)
	router := api.NewRouter(handlers)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &contractProviderApp{
		repo:   orderRepo,
		server: server,
	}
}

func (a *contractProviderApp) seedOrder(t testing.TB, id string) {
	t.Helper()
	if _, err := a.repo.GetByID(context.Background(), id); err == nil {
		return
	}
	order, err := ordersdomain.NewOrder(id, pacttest.PactCustomerID, 42.50, []ordersdomain.LineItem{
		{ProductID: "prod-licorice-red", Quantity: 2, UnitPrice: 21.25},
	}, 12, nil, true)
	require.NoError(t, err)
	_, err = a.repo.Create(context.Background(), order)
	require.NoError(t, err)
}

// staticGateway serves fixed checkout sessions for contract verification.
type staticGateway struct {
	sessions map[string]*paymentsports.CheckoutSession
}

var _ paymentsports.Gateway = (*staticGateway)(nil)

func (g *staticGateway) SessionByID(_ context.Context, id string) (*paymentsports.CheckoutSession, error) {
	session, ok := g.sessions[id]
	if !ok {
		return nil, paymentsports.ErrSessionNotFound
	}
	return session, nil
}

func (g *staticGateway) SessionByOrderID(_ context.Context, orderID string) (*paymentsports.CheckoutSession, error) {
	for _, session := range g.sessions {
		if session.OrderID == orderID {
			return session, nil
		}
	}
	return nil, paymentsports.ErrSessionNotFound
}

// staticShippingProvider satisfies the fulfillment wiring; no pact
// interaction exercises label purchase.
type staticShippingProvider struct{}

var _ shippingports.Provider = (*staticShippingProvider)(nil)

func (p *staticShippingProvider) ValidateAddress(_ context.Context, addr shippingdomain.Address) (shippingdomain.Address, error) {
	return addr, nil
}

func (p *staticShippingProvider) CreateShipment(_ context.Context, _, _ shippingdomain.Address, _ shippingdomain.Parcel) (shippingports.Shipment, error) {
	return shippingports.Shipment{}, shippingdomain.ErrNoRates
}

func (p *staticShippingProvider) PurchaseLabel(_ context.Context, _ string) (shippingdomain.Transaction, error) {
	return shippingdomain.Transaction{}, shippingdomain.ErrLabelPurchase
}

func (p *staticShippingProvider) GetTransaction(_ context.Context, _ string) (shippingdomain.Transaction, error) {
	return shippingdomain.Transaction{}, shippingports.ErrShipmentNotFound
}
