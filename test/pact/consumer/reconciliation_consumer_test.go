//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/devdazzlee/Licorice4Good-sub001/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type assessmentPayload struct {
	OrderID     string   `json:"orderId"`
	Score       int      `json:"score"`
	Flags       []string `json:"flags"`
	AutoApprove bool     `json:"autoApprove"`
	Valid       bool     `json:"valid"`
}

type orderPayload struct {
	ID             string  `json:"id"`
	CustomerID     string  `json:"customerId"`
	Total          float64 `json:"total"`
	OrderStatus    string  `json:"orderStatus"`
	PaymentStatus  string  `json:"paymentStatus"`
	ShippingStatus string  `json:"shippingStatus"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	title  string
	detail string
}

func (e apiError) Error() string {
	msg := e.title
	if msg == "" {
		msg = "api error"
	}
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func (e apiError) Status() int {
	return e.status
}

func TestStorefrontContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	statusPattern := "pending|confirmed|processing|shipped|delivered|cancelled|shipping_failed"

	pact.AddInteraction().
		Given(pacttest.StateOrdersBaseline).
		UponReceiving("a request to assess an order snapshot").
		WithRequest("POST", "/v1/assessments", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(pacttest.ExampleSnapshotPayload())
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"orderId":     matchers.S(pacttest.PendingOrderID),
				"score":       matchers.Like(12),
				"autoApprove": matchers.Like(true),
				"valid":       matchers.Like(true),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StatePendingPayment).
		UponReceiving("a pushed gateway completion event").
		WithRequest("POST", "/v1/webhooks/payment", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(pacttest.ExamplePaymentEventPayload())
		}).
		WillRespondWith(http.StatusAccepted, func(b *pactconsumer.V2ResponseBuilder) {})

	pact.AddInteraction().
		Given(pacttest.StateOrderExists).
		UponReceiving("a request to fetch an existing order").
		WithRequest("GET", "/v1/orders/"+pacttest.ExistingOrderID).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"id":             matchers.S(pacttest.ExistingOrderID),
				"customerId":     matchers.Like(pacttest.PactCustomerID),
				"total":          matchers.Like(42.50),
				"orderStatus":    matchers.Term("pending", statusPattern),
				"paymentStatus":  matchers.Term("pending", "pending|paid|failed"),
				"shippingStatus": matchers.Term("none", "none|label_created|in_transit|shipped|delivered|failed"),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderMissing).
		UponReceiving("a request for a missing order").
		WithRequest("GET", "/v1/orders/"+pacttest.MissingOrderID).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newReconciliationClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		verdict, err := client.AssessOrder(ctx, pacttest.ExampleSnapshotPayload())
		if err != nil {
			return fmt.Errorf("assess order: %w", err)
		}
		if verdict == nil || verdict.OrderID != pacttest.PendingOrderID {
			return fmt.Errorf("expected assessment for %s, got %+v", pacttest.PendingOrderID, verdict)
		}

		if err := client.PostPaymentEvent(ctx, pacttest.ExamplePaymentEventPayload()); err != nil {
			return fmt.Errorf("post payment event: %w", err)
		}

		order, err := client.GetOrder(ctx, pacttest.ExistingOrderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		if order == nil || order.ID != pacttest.ExistingOrderID {
			return fmt.Errorf("expected order %s, got %+v", pacttest.ExistingOrderID, order)
		}

		if _, err := client.GetOrder(ctx, pacttest.MissingOrderID); err == nil {
			return fmt.Errorf("expected 404 for order %s", pacttest.MissingOrderID)
		} else if apiErr, ok := err.(apiError); ok && apiErr.Status() != http.StatusNotFound {
			return fmt.Errorf("expected 404, got %d", apiErr.Status())
		}

		return nil
	})
	require.NoError(t, err)
}

type reconciliationClient struct {
	baseURL    string
	httpClient *http.Client
}

func newReconciliationClient(config pactconsumer.MockServerConfig) *reconciliationClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}
	return &reconciliationClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: client,
	}
}

func (c *reconciliationClient) AssessOrder(ctx context.Context, snapshot map[string]any) (*assessmentPayload, error) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/assessments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(res)
	}

	var payload assessmentPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *reconciliationClient) PostPaymentEvent(ctx context.Context, event map[string]any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/webhooks/payment", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(res)
	}
	return nil
}

func (c *reconciliationClient) GetOrder(ctx context.Context, id string) (*orderPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/orders/"+id, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(res)
	}

	var payload orderPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{
		status: status,
		title:  problem.Title,
		detail: problem.Detail,
	}
}
