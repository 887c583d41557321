package service

import (
	"context"
	"time"
)

// Order lifecycle event types.
const (
	EventOrderCreated       = "order.created"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderConverted     = "order.converted"
)

// OrderEvent represents an order lifecycle fact published after commit
type OrderEvent struct {
	RequestID     string    `json:"request_id,omitempty"` // For distributed tracing
	EventType     string    `json:"event_type"`
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerID    string    `json:"customer_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	TotalAmount   float64   `json:"total_amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishOrderEvent publishes an order lifecycle event for async consumers
	PublishOrderEvent(ctx context.Context, event *OrderEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
