package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrProductNotFound is a domain-specific error returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the inventory operations the order lifecycle
// consumes. Stock mutations are guarded: the quantity never drops below zero.
type ProductRepository interface {
	// FindByID retrieves a single product by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)

	// FindByIDForUpdate retrieves a product while holding a row lock until
	// the enclosing transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Product, error)

	// DecrementStock atomically subtracts quantity from stock. It fails
	// with ErrInsufficientStock semantics (guarded update, zero rows) when
	// the remaining stock does not cover the request.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error

	// IncrementStock atomically restores quantity to stock, the inverse of
	// the decrement performed at order creation.
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}
