// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Product is the inventory-bearing catalog entity. The order lifecycle is
// its only writer within this service: stock moves exclusively inside the
// transaction of the order operation that caused the movement.
type Product struct {
	ID          uuid.UUID // The Global Unique Identifier (GUID) for the product.
	SupplierID  uuid.UUID // The supplier that owns this product.
	Name        string
	SKU         string
	Description string
	Price       float64
	Quantity    int  // Stock count. Invariant: >= 0 at all times.
	IsDigital   bool // Digital products are exempt from stock tracking.
	IsPublished bool // Unpublished products cannot be ordered.
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasStock reports whether the requested quantity can be fulfilled.
// Digital products are always in stock.
func (p *Product) HasStock(quantity int) bool {
	return p.IsDigital || p.Quantity >= quantity
}
