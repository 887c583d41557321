package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrCustomerNotFound is a domain-specific error returned when a customer is not found.
var ErrCustomerNotFound = errors.New("customer not found")

// CustomerRepository defines the standard operations for customer persistence.
type CustomerRepository interface {
	// FindByID retrieves a single customer by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)

	// FindByEmail retrieves a single customer by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.Customer, error)

	// Create persists a new customer entity to the storage.
	Create(ctx context.Context, customer *entity.Customer) error
}
