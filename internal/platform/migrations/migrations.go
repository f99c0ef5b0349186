package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderRecord{},
		&customerRecord{},
	)
}

// Order schema mirrors the orders Postgres adapter. The three status
// columns are indexed separately because the sweep, the webhook
// handlers, and operator queries each filter on a different one.
type orderRecord struct {
	ID             string         `gorm:"primaryKey;column:id;size:64"`
	CustomerID     string         `gorm:"column:customer_id;size:64;index"`
	Total          float64        `gorm:"column:total"`
	OrderStatus    string         `gorm:"column:order_status;type:varchar(32);index"`
	PaymentStatus  string         `gorm:"column:payment_status;type:varchar(32);index"`
	ShippingStatus string         `gorm:"column:shipping_status;type:varchar(32)"`
	RiskScore      int            `gorm:"column:risk_score"`
	RiskFlags      pq.StringArray `gorm:"column:risk_flags;type:text[]"`
	AutoApproved   bool           `gorm:"column:auto_approved"`
	ShipmentID     string         `gorm:"column:shipment_id;size:128;index"`
	TrackingNumber string         `gorm:"column:tracking_number;size:128;index"`
	TrackingURL    string         `gorm:"column:tracking_url"`
	LabelURL       string         `gorm:"column:shipping_label_url"`
	Carrier        string         `gorm:"column:shipping_carrier;size:64"`
	Service        string         `gorm:"column:shipping_service;size:64"`
	ShippingCost   float64        `gorm:"column:shipping_cost"`
	ShippingError  string         `gorm:"column:shipping_error"`
	Items          []itemRecord   `gorm:"column:items;serializer:json"`
	CreatedAt      time.Time      `gorm:"column:created_at;index"`
	UpdatedAt      time.Time      `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type itemRecord struct {
	ProductID string  `json:"productId"`
	FlavorID  string  `json:"flavorId,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Customer schema mirrors the read-only customer adapter.
type customerRecord struct {
	ID            string    `gorm:"primaryKey;column:id;size:64"`
	Email         string    `gorm:"column:email"`
	EmailVerified bool      `gorm:"column:email_verified"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (customerRecord) TableName() string { return "customers" }
