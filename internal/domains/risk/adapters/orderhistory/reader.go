// Package orderhistory bridges the orders bounded context into the
// read-only vocabulary the risk evaluators consume.
package orderhistory

import (
	"context"
	"errors"

	ordersports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/ports"
	riskports "github.com/devdazzlee/Licorice4Good-sub001/internal/domains/risk/ports"
)

var (
	_ riskports.CustomerReader = (*Reader)(nil)
	_ riskports.HistoryReader  = (*Reader)(nil)
)

// Reader adapts the order and customer repositories for risk scoring.
type Reader struct {
	orders    ordersports.Repository
	customers ordersports.CustomerReader
}

func NewReader(orders ordersports.Repository, customers ordersports.CustomerReader) *Reader {
	return &Reader{orders: orders, customers: customers}
}

func (r *Reader) GetCustomer(ctx context.Context, id string) (*riskports.Customer, error) {
	customer, err := r.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ordersports.ErrCustomerNotFound) {
			return nil, riskports.ErrCustomerNotFound
		}
		return nil, err
	}
	return &riskports.Customer{
		ID:            customer.ID,
		Email:         customer.Email,
		EmailVerified: customer.EmailVerified,
		CreatedAt:     customer.CreatedAt,
	}, nil
}

func (r *Reader) CustomerOrders(ctx context.Context, customerID string) ([]riskports.OrderDigest, error) {
	orders, err := r.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	digests := make([]riskports.OrderDigest, 0, len(orders))
	for _, order := range orders {
		digests = append(digests, riskports.OrderDigest{
			ID:            order.ID,
			Total:         order.Total,
			ItemCount:     order.ItemCount(),
			PaymentStatus: string(order.PaymentStatus),
			OrderStatus:   string(order.OrderStatus),
			CreatedAt:     order.CreatedAt,
		})
	}
	return digests, nil
}
