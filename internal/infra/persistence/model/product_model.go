package model

import (
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain/entity"
)

// ProductModel mirrors the 'products' table. Quantity carries a check
// constraint so guarded stock updates can never drive it negative.
type ProductModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	SupplierID  uuid.UUID `gorm:"type:uuid;index"`
	Name        string    `gorm:"type:varchar(255);not null"`
	SKU         string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string    `gorm:"type:text"`
	Price       float64   `gorm:"type:numeric(12,2);not null"`
	Quantity    int       `gorm:"not null;default:0;check:quantity >= 0"`
	IsDigital   bool      `gorm:"not null;default:false"`
	IsPublished bool      `gorm:"not null;default:false;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (ProductModel) TableName() string {
	return "products"
}

// ProductModelFromEntity converts a domain product into its persistence model.
func ProductModelFromEntity(product *entity.Product) *ProductModel {
	return &ProductModel{
		ID:          product.ID,
		SupplierID:  product.SupplierID,
		Name:        product.Name,
		SKU:         product.SKU,
		Description: product.Description,
		Price:       product.Price,
		Quantity:    product.Quantity,
		IsDigital:   product.IsDigital,
		IsPublished: product.IsPublished,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

// ToEntity converts the persistence model back into the domain product.
func (m *ProductModel) ToEntity() *entity.Product {
	return &entity.Product{
		ID:          m.ID,
		SupplierID:  m.SupplierID,
		Name:        m.Name,
		SKU:         m.SKU,
		Description: m.Description,
		Price:       m.Price,
		Quantity:    m.Quantity,
		IsDigital:   m.IsDigital,
		IsPublished: m.IsPublished,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
