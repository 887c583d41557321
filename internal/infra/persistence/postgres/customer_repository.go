package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/infra/persistence/model"
)

// customerRepository implements the repository.CustomerRepository interface using GORM.
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository bound to the given DB or transaction.
func NewCustomerRepository(db *gorm.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	var m model.CustomerModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrCustomerNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find customer")
	}

	return m.ToEntity(), nil
}

func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*entity.Customer, error) {
	var m model.CustomerModel
	err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrCustomerNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find customer by email")
	}

	return m.ToEntity(), nil
}

func (r *customerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	m := model.CustomerModelFromEntity(customer)

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return errors.Wrap(err, "customer email already registered")
		}

		return errors.Wrap(err, "failed to create customer")
	}

	customer.CreatedAt = m.CreatedAt
	customer.UpdatedAt = m.UpdatedAt

	return nil
}
