package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/domain"
	"github.com/devdazzlee/Licorice4Good-sub001/internal/domains/orders/ports"
)

// CustomerRepository reads the account system's customer table. The
// engine never writes to it.
type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

type customerRecord struct {
	ID            string    `gorm:"primaryKey;column:id;size:64"`
	Email         string    `gorm:"column:email"`
	EmailVerified bool      `gorm:"column:email_verified"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (customerRecord) TableName() string { return "customers" }

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("postgres customer repository not configured")
	}
	var record customerRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrCustomerNotFound
		}
		return nil, err
	}
	return &domain.Customer{
		ID:            record.ID,
		Email:         record.Email,
		EmailVerified: record.EmailVerified,
		CreatedAt:     record.CreatedAt,
	}, nil
}
