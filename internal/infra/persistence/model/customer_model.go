package model

import (
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain/entity"
)

// CustomerModel mirrors the 'customers' table.
type CustomerModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name         string    `gorm:"type:varchar(100)"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Role         string    `gorm:"type:varchar(20);not null;default:'customer'"`
	DeviceToken  string    `gorm:"type:varchar(255)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (CustomerModel) TableName() string {
	return "customers"
}

// CustomerModelFromEntity converts a domain customer into its persistence model.
func CustomerModelFromEntity(customer *entity.Customer) *CustomerModel {
	return &CustomerModel{
		ID:           customer.ID,
		Email:        customer.Email,
		Name:         customer.Name,
		PasswordHash: customer.PasswordHash,
		Role:         customer.Role.String(),
		DeviceToken:  customer.DeviceToken,
		CreatedAt:    customer.CreatedAt,
		UpdatedAt:    customer.UpdatedAt,
	}
}

// ToEntity converts the persistence model back into the domain customer.
func (m *CustomerModel) ToEntity() *entity.Customer {
	return &entity.Customer{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         entity.Role(m.Role),
		DeviceToken:  m.DeviceToken,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
