package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"storefront/internal/domain/entity"
)

// OrderModel mirrors the 'orders' table. PostgreSQL generates UUIDs via uuid_generate_v7().
// Address snapshots and metadata are stored as jsonb; the order number
// carries a unique index that backs the collision-retry at creation.
type OrderModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	OrderNumber     string    `gorm:"type:varchar(32);uniqueIndex;not null"`
	CustomerID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Status          string    `gorm:"type:varchar(20);index;not null"`
	PaymentStatus   string    `gorm:"type:varchar(20);not null"`
	Subtotal        float64   `gorm:"type:numeric(12,2);not null"`
	TaxAmount       float64   `gorm:"type:numeric(12,2);not null"`
	ShippingAmount  float64   `gorm:"type:numeric(12,2);not null"`
	DiscountAmount  float64   `gorm:"type:numeric(12,2);not null"`
	TotalAmount     float64   `gorm:"type:numeric(12,2);not null"`
	ShippingAddress datatypes.JSON    `gorm:"type:jsonb"`
	BillingAddress  datatypes.JSON    `gorm:"type:jsonb"`
	PaymentMethod   string            `gorm:"type:varchar(50)"`
	ShippingMethod  string            `gorm:"type:varchar(50)"`
	Notes           string            `gorm:"type:text"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []*OrderItemModel `gorm:"foreignKey:OrderID"`
}

// TableName explicitly sets the table name for GORM.
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel mirrors the 'order_items' table, a frozen snapshot of the
// purchased product.
type OrderItemModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"type:varchar(255);not null"`
	SKU       string    `gorm:"type:varchar(100)"`
	IsDigital bool      `gorm:"not null;default:false"`
	Quantity  int       `gorm:"not null"`
	UnitPrice float64   `gorm:"type:numeric(12,2);not null"`
	Subtotal  float64   `gorm:"type:numeric(12,2);not null"`
	Tax       float64   `gorm:"type:numeric(12,2);not null"`
	Discount  float64   `gorm:"type:numeric(12,2);not null"`
	Total     float64   `gorm:"type:numeric(12,2);not null"`
}

// TableName explicitly sets the table name for GORM.
func (OrderItemModel) TableName() string {
	return "order_items"
}

// OrderModelFromEntity converts a domain order into its persistence model.
func OrderModelFromEntity(order *entity.Order) (*OrderModel, error) {
	shipping, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal shipping address")
	}
	billing, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal billing address")
	}

	m := &OrderModel{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		Subtotal:        order.Subtotal,
		TaxAmount:       order.TaxAmount,
		ShippingAmount:  order.ShippingAmount,
		DiscountAmount:  order.DiscountAmount,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: datatypes.JSON(shipping),
		BillingAddress:  datatypes.JSON(billing),
		PaymentMethod:   order.PaymentMethod,
		ShippingMethod:  order.ShippingMethod,
		Notes:           order.Notes,
		Metadata:        datatypes.JSONMap(order.Metadata),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}

	for _, item := range order.Items {
		m.Items = append(m.Items, OrderItemModelFromEntity(item))
	}

	return m, nil
}

// ToEntity converts the persistence model back into the domain order.
func (m *OrderModel) ToEntity() (*entity.Order, error) {
	order := &entity.Order{
		ID:             m.ID,
		OrderNumber:    m.OrderNumber,
		CustomerID:     m.CustomerID,
		Status:         entity.OrderStatus(m.Status),
		PaymentStatus:  entity.PaymentStatus(m.PaymentStatus),
		Subtotal:       m.Subtotal,
		TaxAmount:      m.TaxAmount,
		ShippingAmount: m.ShippingAmount,
		DiscountAmount: m.DiscountAmount,
		TotalAmount:    m.TotalAmount,
		PaymentMethod:  m.PaymentMethod,
		ShippingMethod: m.ShippingMethod,
		Notes:          m.Notes,
		Metadata:       entity.Metadata(m.Metadata),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	if len(m.ShippingAddress) > 0 {
		if err := json.Unmarshal(m.ShippingAddress, &order.ShippingAddress); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal shipping address")
		}
	}
	if len(m.BillingAddress) > 0 {
		if err := json.Unmarshal(m.BillingAddress, &order.BillingAddress); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal billing address")
		}
	}

	for _, item := range m.Items {
		order.Items = append(order.Items, item.ToEntity())
	}

	return order, nil
}

// OrderItemModelFromEntity converts a domain order item into its persistence model.
func OrderItemModelFromEntity(item *entity.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		ID:        item.ID,
		OrderID:   item.OrderID,
		ProductID: item.ProductID,
		Name:      item.Name,
		SKU:       item.SKU,
		IsDigital: item.IsDigital,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		Subtotal:  item.Subtotal,
		Tax:       item.Tax,
		Discount:  item.Discount,
		Total:     item.Total,
	}
}

// ToEntity converts the persistence model back into the domain order item.
func (m *OrderItemModel) ToEntity() *entity.OrderItem {
	return &entity.OrderItem{
		ID:        m.ID,
		OrderID:   m.OrderID,
		ProductID: m.ProductID,
		Name:      m.Name,
		SKU:       m.SKU,
		IsDigital: m.IsDigital,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		Subtotal:  m.Subtotal,
		Tax:       m.Tax,
		Discount:  m.Discount,
		Total:     m.Total,
	}
}
