package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/domain"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/ports"
)

var (
	_ ports.Repository     = (*Repository)(nil)
	_ ports.CustomerReader = (*CustomerRepository)(nil)
)

// Repository persists orders in PostgreSQL using GORM. Status writes are
// conditional UPDATE statements so webhook and sweep paths racing on the
// same row cannot lose updates.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&orderRecord{})
	}
	return repo
}

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

func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *Repository) GetByShipmentID(ctx context.Context, shipmentID string) (*domain.Order, error) {
	return r.getWhere(ctx, "shipment_id = ?", shipmentID)
}

func (r *Repository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Order, error) {
	return r.getWhere(ctx, "tracking_number = ?", trackingNumber)
}

func (r *Repository) getWhere(ctx context.Context, query string, arg string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if arg == "" {
		return nil, ports.ErrNotFound
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return r.listWhere(ctx, "customer_id = ?", customerID)
}

func (r *Repository) ListPendingPayments(ctx context.Context) ([]*domain.Order, error) {
	return r.listWhere(ctx, "payment_status = ?", string(domain.PaymentPending))
}

func (r *Repository) listWhere(ctx context.Context, query string, arg string) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).Where(query, arg).Order("created_at").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

func (r *Repository) SetPaymentStatusIfPending(ctx context.Context, id string, payment domain.PaymentStatus, orderStatus domain.OrderStatus) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	updates := map[string]any{
		"payment_status": string(payment),
		"updated_at":     gorm.Expr("NOW()"),
	}
	if orderStatus != "" {
		updates["order_status"] = string(orderStatus)
	}
	result := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND payment_status = ?", id, string(domain.PaymentPending)).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing row from a lost race against another writer.
		if _, err := r.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *Repository) ApplyShipmentFacts(ctx context.Context, id string, facts domain.ShipmentFacts) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if facts.ShipmentID == "" || facts.TrackingNumber == "" {
		return domain.ErrIncompleteShipment
	}
	result := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND shipping_status IN ?", id, []string{string(domain.ShippingNone), string(domain.ShippingFailed)}).
		Updates(map[string]any{
			"shipment_id":        facts.ShipmentID,
			"tracking_number":    facts.TrackingNumber,
			"tracking_url":       facts.TrackingURL,
			"shipping_label_url": facts.LabelURL,
			"shipping_carrier":   facts.Carrier,
			"shipping_service":   facts.Service,
			"shipping_cost":      facts.Cost,
			"shipping_error":     "",
			"shipping_status":    string(domain.ShippingLabelCreated),
			"updated_at":         gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *Repository) RecordShipmentError(ctx context.Context, id string, message string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND shipping_status <> ?", id, string(domain.ShippingDelivered)).
		Updates(map[string]any{
			"shipping_error":  message,
			"shipping_status": string(domain.ShippingFailed),
			"order_status":    string(domain.OrderShippingFailed),
			"updated_at":      gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *Repository) AdvanceShippingStatus(ctx context.Context, id string, next domain.ShippingStatus) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	allowed := allowedPredecessors(next)
	if len(allowed) == 0 {
		return false, domain.ErrInvalidTransition
	}
	updates := map[string]any{
		"shipping_status": string(next),
		"updated_at":      gorm.Expr("NOW()"),
	}
	if mirrored := mirroredOrderStatus(next); mirrored != "" {
		updates["order_status"] = string(mirrored)
	}
	result := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND shipping_status IN ?", id, allowed).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// allowedPredecessors mirrors domain.CanTransitionShipping as a SQL guard.
func allowedPredecessors(next domain.ShippingStatus) []string {
	all := []domain.ShippingStatus{
		domain.ShippingNone,
		domain.ShippingLabelCreated,
		domain.ShippingInTransit,
		domain.ShippingShipped,
		domain.ShippingDelivered,
		domain.ShippingFailed,
	}
	var allowed []string
	for _, from := range all {
		if domain.CanTransitionShipping(from, next) {
			allowed = append(allowed, string(from))
		}
	}
	return allowed
}

func mirroredOrderStatus(next domain.ShippingStatus) domain.OrderStatus {
	switch next {
	case domain.ShippingInTransit, domain.ShippingShipped:
		return domain.OrderShipped
	case domain.ShippingDelivered:
		return domain.OrderDelivered
	case domain.ShippingFailed:
		return domain.OrderShippingFailed
	default:
		return ""
	}
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	items := make([]itemRecord, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemRecord{
			ProductID: item.ProductID,
			FlavorID:  item.FlavorID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return orderRecord{
		ID:             order.ID,
		CustomerID:     order.CustomerID,
		Total:          order.Total,
		OrderStatus:    string(order.OrderStatus),
		PaymentStatus:  string(order.PaymentStatus),
		ShippingStatus: string(order.ShippingStatus),
		RiskScore:      order.RiskScore,
		RiskFlags:      pq.StringArray(order.RiskFlags),
		AutoApproved:   order.AutoApproved,
		ShipmentID:     order.Shipment.ShipmentID,
		TrackingNumber: order.Shipment.TrackingNumber,
		TrackingURL:    order.Shipment.TrackingURL,
		LabelURL:       order.Shipment.LabelURL,
		Carrier:        order.Shipment.Carrier,
		Service:        order.Shipment.Service,
		ShippingCost:   order.Shipment.Cost,
		ShippingError:  order.ShippingError,
		Items:          items,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	items := make([]domain.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.LineItem{
			ProductID: item.ProductID,
			FlavorID:  item.FlavorID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return &domain.Order{
		ID:             r.ID,
		CustomerID:     r.CustomerID,
		Total:          r.Total,
		OrderStatus:    domain.OrderStatus(r.OrderStatus),
		PaymentStatus:  domain.PaymentStatus(r.PaymentStatus),
		ShippingStatus: domain.ShippingStatus(r.ShippingStatus),
		RiskScore:      r.RiskScore,
		RiskFlags:      []string(r.RiskFlags),
		AutoApproved:   r.AutoApproved,
		Shipment: domain.ShipmentFacts{
			ShipmentID:     r.ShipmentID,
			TrackingNumber: r.TrackingNumber,
			TrackingURL:    r.TrackingURL,
			LabelURL:       r.LabelURL,
			Carrier:        r.Carrier,
			Service:        r.Service,
			Cost:           r.ShippingCost,
		},
		ShippingError: r.ShippingError,
		Items:         items,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
