// Package stripe is a minimal client for the payment gateway's
// checkout-session API. Only the fields the reconciliation engine acts
// on are modeled.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound signals the gateway has no record of the session.
var ErrNotFound = errors.New("gateway session not found")

// CheckoutSession mirrors the gateway's session object.
type CheckoutSession struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

// OrderID extracts the correlation id the checkout flow stored in
// session metadata.
func (s *CheckoutSession) OrderID() string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s.Metadata["orderId"])
}

type sessionList struct {
	Data []CheckoutSession `json:"data"`
}

// Client talks to the payment gateway over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient instantiates the gateway client with sane defaults.
func NewClient(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("gateway base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}, nil
}

// GetCheckoutSession fetches one session by gateway id.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("session id is required")
	}
	var session CheckoutSession
	if err := c.get(ctx, "/v1/checkout/sessions/"+url.PathEscape(id), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindCheckoutSessionByOrderID resolves a session through the order
// correlation id embedded in session metadata.
func (c *Client) FindCheckoutSessionByOrderID(ctx context.Context, orderID string) (*CheckoutSession, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.New("order id is required")
	}
	var list sessionList
	query := url.Values{"order_id": {orderID}, "limit": {"1"}}
	if err := c.get(ctx, "/v1/checkout/sessions?"+query.Encode(), &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, ErrNotFound
	}
	session := list.Data[0]
	return &session, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c == nil || c.httpClient == nil {
		return errors.New("gateway client not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
