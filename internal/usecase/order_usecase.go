// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/domain/entity"
)

// --- Input DTOs ---

// OrderItemInput identifies one product line requested by the customer.
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput defines the data required to place a new order.
type CreateOrderInput struct {
	CustomerID      uuid.UUID
	Items           []OrderItemInput
	ShippingAddress entity.AddressSnapshot
	BillingAddress  entity.AddressSnapshot
	PaymentMethod   string
	ShippingMethod  string
	Notes           string
}

// CancelOrderInput defines the data required to cancel an order.
// Principal carries the caller's identity so ownership can be enforced.
type CancelOrderInput struct {
	OrderID   uuid.UUID
	Principal entity.Principal
	Reason    string
}

// UpdateOrderStatusInput defines an administrative status change request.
type UpdateOrderStatusInput struct {
	OrderID   uuid.UUID
	Principal entity.Principal
	Status    entity.OrderStatus
}

// UpdatePaymentStatusInput defines a payment status change request.
// Details is merged into the order's payment metadata when present.
type UpdatePaymentStatusInput struct {
	OrderID       uuid.UUID
	Principal     entity.Principal
	PaymentStatus entity.PaymentStatus
	Details       map[string]any
}

// SaveDraftInput defines the data required to save a draft order.
// Items and addresses may be incomplete; TotalAmount, when set, overrides the
// computed total.
type SaveDraftInput struct {
	CustomerID      uuid.UUID
	Items           []OrderItemInput
	ShippingAddress entity.AddressSnapshot
	BillingAddress  entity.AddressSnapshot
	PaymentMethod   string
	ShippingMethod  string
	Notes           string
	TotalAmount     *float64
}

// UpdateDraftInput defines the data required to rework an existing draft.
type UpdateDraftInput struct {
	OrderID         uuid.UUID
	Principal       entity.Principal
	Items           []OrderItemInput
	ShippingAddress entity.AddressSnapshot
	BillingAddress  entity.AddressSnapshot
	PaymentMethod   string
	ShippingMethod  string
	Notes           string
	TotalAmount     *float64
}

// ConvertDraftInput defines the data required to convert a draft into a live order.
type ConvertDraftInput struct {
	OrderID   uuid.UUID
	Principal entity.Principal
}

// DeleteDraftInput defines the data required to delete a draft order.
type DeleteDraftInput struct {
	OrderID   uuid.UUID
	Principal entity.Principal
}

// GetOrderInput defines the data required to fetch a single order.
type GetOrderInput struct {
	OrderID   uuid.UUID
	Principal entity.Principal
}

// ListOrdersInput defines the data required to list a customer's orders.
type ListOrdersInput struct {
	CustomerID uuid.UUID
	Principal  entity.Principal
	Status     entity.OrderStatus
	Limit      int
	Offset     int
}

// --- Output DTOs ---

// OrderOutput returns a single order with its items.
type OrderOutput struct {
	Order *entity.Order
}

// ListOrdersOutput returns a page of orders.
type ListOrdersOutput struct {
	Orders []*entity.Order
	Total  int64
}

// OrderUsecase defines the interface for order lifecycle operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type OrderUsecase interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderOutput, error)
	CancelOrder(ctx context.Context, input CancelOrderInput) (*OrderOutput, error)
	UpdateOrderStatus(ctx context.Context, input UpdateOrderStatusInput) (*OrderOutput, error)
	UpdatePaymentStatus(ctx context.Context, input UpdatePaymentStatusInput) (*OrderOutput, error)

	SaveDraft(ctx context.Context, input SaveDraftInput) (*OrderOutput, error)
	UpdateDraft(ctx context.Context, input UpdateDraftInput) (*OrderOutput, error)
	ConvertDraft(ctx context.Context, input ConvertDraftInput) (*OrderOutput, error)
	DeleteDraft(ctx context.Context, input DeleteDraftInput) error

	GetOrder(ctx context.Context, input GetOrderInput) (*OrderOutput, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*ListOrdersOutput, error)
}
