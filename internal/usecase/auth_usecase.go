package usecase

import (
	"context"

	"storefront/internal/domain/entity"
)

// RegisterInput defines the data required to register a new customer.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput defines the data required for a customer to log in.
type LoginInput struct {
	Email    string
	Password string
}

// RegisterOutput returns the newly created customer's basic information.
type RegisterOutput struct {
	Customer *entity.Customer
}

// LoginOutput returns the generated token after a successful login.
type LoginOutput struct {
	AccessToken string
	Customer    *entity.Customer
}

// AuthUsecase defines the interface for customer authentication operations.
type AuthUsecase interface {
	Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error)
	Login(ctx context.Context, input LoginInput) (*LoginOutput, error)
}
