package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoRates is returned when the provider offers no carrier options
	// for a shipment.
	ErrNoRates = errors.New("no rates available for shipment")
	// ErrLabelPurchase is returned when the provider reports a terminal
	// error for a label transaction.
	ErrLabelPurchase = errors.New("label purchase failed")
	// ErrMissingTracking is returned when a successful transaction comes
	// back without a tracking number.
	ErrMissingTracking = errors.New("transaction missing tracking number")
)

// Address is a validated shipping destination.
type Address struct {
	Name    string
	Street1 string
	Street2 string
	City    string
	State   string
	Zip     string
	Country string
	Email   string
	Phone   string
}

// Parcel describes the physical package being shipped. Dimensions are
// in inches, weight in ounces, matching the provider's units.
type Parcel struct {
	Length float64
	Width  float64
	Height float64
	Weight float64
}

// Rate is one carrier option quoted for a shipment.
type Rate struct {
	ID            string
	Carrier       string
	ServiceLevel  string
	Amount        float64
	Currency      string
	EstimatedDays int
}

// TransactionStatus is the provider's processing state for a purchased
// label.
type TransactionStatus string

const (
	TransactionQueued  TransactionStatus = "QUEUED"
	TransactionSuccess TransactionStatus = "SUCCESS"
	TransactionError   TransactionStatus = "ERROR"
)

// Transaction is the provider's record of a label purchase.
type Transaction struct {
	ID             string
	Status         TransactionStatus
	TrackingNumber string
	TrackingURL    string
	LabelURL       string
	ShipmentID     string
	Rate           Rate
	Messages       []string
}

// Terminal reports whether the transaction has left the provider's
// processing queue.
func (t Transaction) Terminal() bool {
	return t.Status == TransactionSuccess || t.Status == TransactionError
}

// carrierTrackingTemplates maps a normalized carrier token to the
// public tracking page for a tracking number.
var carrierTrackingTemplates = map[string]string{
	"ups":   "https://www.ups.com/track?loc=en_US&tracknum=%s",
	"usps":  "https://tools.usps.com/go/TrackConfirmAction?tLabels=%s",
	"fedex": "https://www.fedex.com/fedextrack/?trknbr=%s",
	"dhl":   "https://www.dhl.com/en/express/tracking.html?AWB=%s",
}

// genericTrackingTemplate is the provider-hosted tracking page used
// when the carrier is unrecognized.
const genericTrackingTemplate = "https://track.goshippo.com/%s"

// TrackingURL derives the customer-facing tracking URL. The provider's
// own URL wins when present; otherwise the carrier template is used,
// falling back to the provider-hosted page for unknown carriers. The
// result is non-empty whenever trackingNumber is.
func TrackingURL(providerURL, carrier, trackingNumber string) string {
	if strings.TrimSpace(providerURL) != "" {
		return providerURL
	}
	if strings.TrimSpace(trackingNumber) == "" {
		return ""
	}
	key := strings.ToLower(strings.TrimSpace(carrier))
	if template, ok := carrierTrackingTemplates[key]; ok {
		return fmt.Sprintf(template, trackingNumber)
	}
	return fmt.Sprintf(genericTrackingTemplate, trackingNumber)
}
