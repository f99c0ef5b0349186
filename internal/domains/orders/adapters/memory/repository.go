package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/domain"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/ports"
)

var (
	_ ports.Repository     = (*Repository)(nil)
	_ ports.CustomerReader = (*CustomerStore)(nil)
)

// Repository is the in-memory order persistence adapter used for dev
// and tests. Conditional writes mirror the Postgres adapter semantics.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewRepository() *Repository {
	return &Repository{orders: map[string]*domain.Order{}}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := cloneOrder(order)
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[clone.ID] = clone
	return cloneOrder(clone), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *Repository) GetByShipmentID(_ context.Context, shipmentID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, order := range r.orders {
		if order.Shipment.ShipmentID == shipmentID && shipmentID != "" {
			return cloneOrder(order), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) GetByTrackingNumber(_ context.Context, trackingNumber string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, order := range r.orders {
		if order.Shipment.TrackingNumber == trackingNumber && trackingNumber != "" {
			return cloneOrder(order), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) ListByCustomer(_ context.Context, customerID string) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			list = append(list, cloneOrder(order))
		}
	}
	return list, nil
}

func (r *Repository) ListPendingPayments(_ context.Context) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []*domain.Order
	for _, order := range r.orders {
		if order.PaymentStatus == domain.PaymentPending {
			list = append(list, cloneOrder(order))
		}
	}
	return list, nil
}

func (r *Repository) SetPaymentStatusIfPending(_ context.Context, id string, payment domain.PaymentStatus, orderStatus domain.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return false, ports.ErrNotFound
	}
	if order.PaymentStatus != domain.PaymentPending {
		return false, nil
	}
	order.PaymentStatus = payment
	if orderStatus != "" {
		order.OrderStatus = orderStatus
	}
	order.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *Repository) ApplyShipmentFacts(_ context.Context, id string, facts domain.ShipmentFacts) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	return order.AttachShipment(facts)
}

func (r *Repository) RecordShipmentError(_ context.Context, id string, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	return order.RecordShippingFailure(message)
}

func (r *Repository) AdvanceShippingStatus(_ context.Context, id string, next domain.ShippingStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return false, ports.ErrNotFound
	}
	if !domain.CanTransitionShipping(order.ShippingStatus, next) {
		return false, nil
	}
	if err := order.AdvanceShipping(next); err != nil {
		return false, err
	}
	return true, nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.RiskFlags = append([]string(nil), order.RiskFlags...)
	clone.Items = append([]domain.LineItem(nil), order.Items...)
	return &clone
}

// CustomerStore keeps customer read models in memory.
type CustomerStore struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer
}

func NewCustomerStore() *CustomerStore {
	return &CustomerStore{customers: map[string]*domain.Customer{}}
}

// Put registers or replaces a customer read model.
func (s *CustomerStore) Put(customer *domain.Customer) {
	if customer == nil || customer.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *customer
	s.customers[customer.ID] = &clone
}

func (s *CustomerStore) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customer, ok := s.customers[id]
	if !ok {
		return nil, ports.ErrCustomerNotFound
	}
	clone := *customer
	return &clone, nil
}
