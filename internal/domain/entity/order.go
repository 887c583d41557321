// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusDraft      OrderStatus = "draft"
	OrderStatusCompleted  OrderStatus = "completed"
)

// PaymentStatus represents the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid checks if the OrderStatus is a valid value.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded,
		OrderStatusDraft, OrderStatusCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further status transition is permitted.
// Payment reconciliation on cancellation is handled separately and is the
// only mutation allowed on a terminal order.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCancelled, OrderStatusDelivered, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// IsValid checks if the PaymentStatus is a valid value.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// validStatusTransitions defines the admin-driven forward transitions.
// Cancellation is not listed here: it is its own operation with inventory
// side effects and its own precondition chain.
var validStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:      {OrderStatusPending},
	OrderStatusPending:    {OrderStatusProcessing},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCompleted},
	OrderStatusCompleted:  {OrderStatusRefunded},
}

// CanTransitionTo checks whether the status may move to the target status.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return slices.Contains(validStatusTransitions[s], target)
}

// Metadata is free-form order bookkeeping, persisted as a JSON column.
// It records cancellation actor/reason and draft conversion facts.
type Metadata map[string]any

// Metadata keys written by the order lifecycle.
const (
	MetaKeyCancelledAt        = "cancelledAt"
	MetaKeyCancelledBy        = "cancelledBy"
	MetaKeyCancelledByRole    = "cancelledByRole"
	MetaKeyCancellationReason = "cancellationReason"
	MetaKeyConvertedFromDraft = "convertedFromDraft"
	MetaKeyConvertedAt        = "convertedAt"
	MetaKeyDraftOrderNumber   = "draftOrderNumber"
	MetaKeyDraftSavedAt       = "draftSavedAt"
	MetaKeyPaymentDetails     = "paymentDetails"
)

// Order is the aggregate root of the order lifecycle. Address data is a
// point-in-time snapshot, decoupled from the customer's live address records.
type Order struct {
	ID              uuid.UUID       // The Global Unique Identifier (GUID) for the order.
	OrderNumber     string          // Unique, generated human-facing number ("ORD-..." or "DFT-...").
	CustomerID      uuid.UUID       // The owning customer.
	Status          OrderStatus     // Lifecycle state, see the transition table.
	PaymentStatus   PaymentStatus   // Payment state, reconciled on cancellation.
	Subtotal        float64         // Sum of item subtotals.
	TaxAmount       float64         // Sum of item taxes.
	ShippingAmount  float64         // Flat tier by shipping method.
	DiscountAmount  float64         // Defaults to 0, extensible.
	TotalAmount     float64         // Invariant: subtotal + tax + shipping - discount.
	ShippingAddress AddressSnapshot // Snapshot taken at creation time.
	BillingAddress  AddressSnapshot // Snapshot taken at creation time.
	PaymentMethod   string
	ShippingMethod  string
	Notes           string
	Metadata        Metadata
	Items           []*OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is a frozen copy of the purchased product at order creation
// time; later product edits do not retroactively alter historical orders.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	SKU       string
	IsDigital bool // Frozen at creation so cancellation never re-reads the live product flag.
	Quantity  int  // Invariant: >= 1.
	UnitPrice float64
	Subtotal  float64 // unitPrice * quantity
	Tax       float64
	Discount  float64
	Total     float64 // Invariant: subtotal + tax - discount.
}

// IsDraft reports whether the order is still in the draft (save-for-later) state.
func (o *Order) IsDraft() bool {
	return o.Status == OrderStatusDraft
}

// IsOwnedBy reports whether the given customer owns this order.
func (o *Order) IsOwnedBy(customerID uuid.UUID) bool {
	return o.CustomerID == customerID
}

// SetMeta writes a metadata key, allocating the map on first use.
func (o *Order) SetMeta(key string, value any) {
	if o.Metadata == nil {
		o.Metadata = Metadata{}
	}
	o.Metadata[key] = value
}

// Order number prefixes.
const (
	OrderNumberPrefix = "ORD-"
	DraftNumberPrefix = "DFT-"
)

// NewOrderNumber generates an order number: prefix + last six digits of the
// millisecond timestamp + zero-padded random suffix. Uniqueness is enforced
// by the database constraint; callers retry on conflict.
func NewOrderNumber(prefix string) string {
	millis := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}

	return fmt.Sprintf("%s%s%03d", prefix, millis, rand.IntN(1000))
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
