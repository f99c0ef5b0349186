package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	paymentsapp "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/payments/application"
	shippingdomain "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/shipping/domain"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	PostgresDSN       string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool

	StripeBaseURL string
	StripeAPIKey  string
	ShippoBaseURL string
	ShippoToken   string

	PaymentStaleWindow time.Duration
	ShipFrom           shippingdomain.Address
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:               envDefault("PORT", "8080"),
		PostgresDSN:        strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:    envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:  envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:   isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		StripeBaseURL:      envDefault("STRIPE_BASE_URL", "https://api.stripe.com"),
		StripeAPIKey:       strings.TrimSpace(os.Getenv("STRIPE_API_KEY")),
		ShippoBaseURL:      envDefault("SHIPPO_BASE_URL", "https://api.goshippo.com"),
		ShippoToken:        strings.TrimSpace(os.Getenv("SHIPPO_API_TOKEN")),
		PaymentStaleWindow: paymentsapp.DefaultStaleWindow,
		ShipFrom:           shipFromEnv(),
	}
	if raw := strings.TrimSpace(os.Getenv("PAYMENT_STALE_WINDOW_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("PAYMENT_STALE_WINDOW_HOURS must be a positive integer")
		}
		cfg.PaymentStaleWindow = time.Duration(hours) * time.Hour
	}
	return cfg, nil
}

func shipFromEnv() shippingdomain.Address {
	return shippingdomain.Address{
		Name:    envDefault("SHIP_FROM_NAME", "Licorice4Good Warehouse"),
		Street1: envDefault("SHIP_FROM_STREET1", "215 Clayton St"),
		City:    envDefault("SHIP_FROM_CITY", "San Francisco"),
		State:   envDefault("SHIP_FROM_STATE", "CA"),
		Zip:     envDefault("SHIP_FROM_ZIP", "94117"),
		Country: envDefault("SHIP_FROM_COUNTRY", "US"),
	}
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
