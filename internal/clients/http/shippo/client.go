// Package shippo is a minimal client for the label provider's API.
// Only the objects the fulfillment orchestrator acts on are modeled.
package shippo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound signals the provider has no record of the object.
var ErrNotFound = errors.New("shipping object not found")

// Address mirrors the provider's address object.
type Address struct {
	Name    string `json:"name,omitempty"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`

	ObjectID         string            `json:"object_id,omitempty"`
	ValidationResult *ValidationResult `json:"validation_results,omitempty"`
}

// ValidationResult carries the provider's verdict on an address.
type ValidationResult struct {
	IsValid  bool `json:"is_valid"`
	Messages []struct {
		Text string `json:"text"`
	} `json:"messages"`
}

// Parcel mirrors the provider's parcel object. Dimensions in inches,
// weight in ounces.
type Parcel struct {
	Length       string `json:"length"`
	Width        string `json:"width"`
	Height       string `json:"height"`
	DistanceUnit string `json:"distance_unit"`
	Weight       string `json:"weight"`
	MassUnit     string `json:"mass_unit"`
}

// Rate is one carrier option the provider quoted for a shipment.
type Rate struct {
	ObjectID     string `json:"object_id"`
	Provider     string `json:"provider"`
	ServiceLevel struct {
		Name string `json:"name"`
	} `json:"servicelevel"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	EstimatedDays int    `json:"estimated_days"`
}

// Shipment mirrors the provider's shipment object with its rates.
type Shipment struct {
	ObjectID string `json:"object_id"`
	Status   string `json:"status"`
	Rates    []Rate `json:"rates"`
}

// Transaction mirrors the provider's label-purchase record.
type Transaction struct {
	ObjectID       string `json:"object_id"`
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url_provider"`
	LabelURL       string `json:"label_url"`
	Rate           Rate   `json:"rate"`
	Parcel         string `json:"parcel"`
	Messages       []struct {
		Text string `json:"text"`
	} `json:"messages"`
	ShipmentID string `json:"shipment"`
}

type shipmentRequest struct {
	AddressFrom Address  `json:"address_from"`
	AddressTo   Address  `json:"address_to"`
	Parcels     []Parcel `json:"parcels"`
	Async       bool     `json:"async"`
}

type transactionRequest struct {
	Rate          string `json:"rate"`
	LabelFileType string `json:"label_file_type"`
	Async         bool   `json:"async"`
}

// Client talks to the label provider over HTTP.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewClient instantiates the provider client with sane defaults.
func NewClient(baseURL, apiToken string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("shipping base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, apiToken: apiToken, httpClient: httpClient}, nil
}

// ValidateAddress submits an address for provider-side validation.
func (c *Client) ValidateAddress(ctx context.Context, addr Address) (*Address, error) {
	type validatedAddress struct {
		Address
		Validate bool `json:"validate"`
	}
	var out Address
	if err := c.do(ctx, http.MethodPost, "/addresses/", validatedAddress{Address: addr, Validate: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateShipment creates a shipment synchronously and returns it with
// its quoted rates.
func (c *Client) CreateShipment(ctx context.Context, from, to Address, parcel Parcel) (*Shipment, error) {
	req := shipmentRequest{AddressFrom: from, AddressTo: to, Parcels: []Parcel{parcel}, Async: false}
	var out Shipment
	if err := c.do(ctx, http.MethodPost, "/shipments/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PurchaseLabel buys a label against a quoted rate.
func (c *Client) PurchaseLabel(ctx context.Context, rateID string) (*Transaction, error) {
	if strings.TrimSpace(rateID) == "" {
		return nil, errors.New("rate id is required")
	}
	req := transactionRequest{Rate: rateID, LabelFileType: "PDF", Async: false}
	var out Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTransaction fetches a transaction by provider id.
func (c *Client) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("transaction id is required")
	}
	var out Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c == nil || c.httpClient == nil {
		return errors.New("shipping client not configured")
	}
	var body *bytes.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode shipping request: %w", err)
		}
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build shipping request: %w", err)
	}
	req.Header.Set("Authorization", "ShippoToken "+c.apiToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call shipping provider: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("shipping provider returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode shipping response: %w", err)
	}
	return nil
}
