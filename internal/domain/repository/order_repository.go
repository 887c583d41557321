// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrOrderNotFound is a domain-specific error returned when an order is not found.
var ErrOrderNotFound = errors.New("order not found")

// ErrDuplicateOrderNumber is returned when the generated order number
// collides with an existing one; callers retry the whole transaction.
var ErrDuplicateOrderNumber = errors.New("duplicate order number")

// OrderRepository defines the standard operations for order persistence.
// The application layer will depend on this interface, not the concrete implementation.
type OrderRepository interface {
	// Create persists a new order together with its items.
	Create(ctx context.Context, order *entity.Order) error

	// FindByID retrieves a single order with its items.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)

	// FindByIDForUpdate retrieves an order with its items while holding a
	// row lock until the enclosing transaction ends; precondition checks
	// and the subsequent write stay consistent under concurrency.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error)

	// ListByCustomer retrieves orders owned by a customer, newest first,
	// optionally filtered by status. It returns the page and the total
	// count of matching orders.
	ListByCustomer(ctx context.Context, customerID uuid.UUID, status entity.OrderStatus, limit, offset int) ([]*entity.Order, int64, error)

	// Update persists changes to the order's own columns (not its items).
	Update(ctx context.Context, order *entity.Order) error

	// ReplaceItems deletes all items of the order and inserts the given
	// ones; used by the draft update workflow.
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []*entity.OrderItem) error

	// Delete removes the order and its items.
	Delete(ctx context.Context, id uuid.UUID) error
}
