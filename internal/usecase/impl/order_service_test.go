package impl

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/config"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	mockRepo "storefront/internal/mocks/repository"
	"storefront/internal/usecase"
)

// orderServiceFixtures holds all test dependencies for order service tests.
type orderServiceFixtures struct {
	service      usecase.OrderUsecase
	txManager    *mockRepo.MockTransactionManager
	orderRepo    *mockRepo.MockOrderRepository
	customerRepo *mockRepo.MockCustomerRepository
}

func createTestOrderService(t *testing.T) orderServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	orderRepo := mockRepo.NewMockOrderRepository(t)
	customerRepo := mockRepo.NewMockCustomerRepository(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		Pricing: &config.PricingConfig{
			TaxRate:          0.10,
			ShippingStandard: 5,
			ShippingExpress:  15,
		},
	}

	service := NewOrderService(OrderServiceParams{
		TxManager:    txManager,
		OrderRepo:    orderRepo,
		CustomerRepo: customerRepo,
		Config:       cfg,
		Logger:       logger,
	})

	return orderServiceFixtures{
		service:      service,
		txManager:    txManager,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
	}
}

func testAddress() entity.AddressSnapshot {
	return entity.AddressSnapshot{
		FullName:   "Test Customer",
		Line1:      "1 Test Road",
		City:       "Taipei",
		PostalCode: "100",
		Country:    "TW",
	}
}

func testProduct(price float64, stock int) *entity.Product {
	return &entity.Product{
		ID:          uuid.New(),
		Name:        "Test Product",
		SKU:         "SKU-001",
		Price:       price,
		Quantity:    stock,
		IsPublished: true,
	}
}

func customerPrincipal(id uuid.UUID) entity.Principal {
	return entity.Principal{ID: id, Role: entity.RoleCustomer}
}

func adminPrincipal() entity.Principal {
	return entity.Principal{ID: uuid.New(), Role: entity.RoleAdmin}
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	product := testProduct(50, 10)

	var createdOrder *entity.Order

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockProductRepo.EXPECT().FindByIDForUpdate(ctx, product.ID).Return(product, nil)
			mockProductRepo.EXPECT().DecrementStock(ctx, product.ID, 2).Return(nil)
			mockOrderRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.Order")).
				Run(func(ctx context.Context, order *entity.Order) {
					createdOrder = order
				}).
				Return(nil)

			return fn(mockFactory)
		})

	output, err := fx.service.CreateOrder(ctx, usecase.CreateOrderInput{
		CustomerID:      customerID,
		Items:           []usecase.OrderItemInput{{ProductID: product.ID, Quantity: 2}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
		PaymentMethod:   "credit_card",
		ShippingMethod:  "standard",
	})

	require.NoError(t, err)
	require.NotNil(t, createdOrder)
	assert.Equal(t, createdOrder, output.Order)

	assert.True(t, strings.HasPrefix(createdOrder.OrderNumber, entity.OrderNumberPrefix))
	assert.Equal(t, entity.OrderStatusPending, createdOrder.Status)
	assert.Equal(t, entity.PaymentStatusPending, createdOrder.PaymentStatus)
	assert.Equal(t, customerID, createdOrder.CustomerID)

	require.Len(t, createdOrder.Items, 1)
	item := createdOrder.Items[0]
	assert.Equal(t, "Test Product", item.Name)
	assert.Equal(t, 2, item.Quantity)
	assert.InDelta(t, 100.0, item.Subtotal, 0.001)
	assert.InDelta(t, 10.0, item.Tax, 0.001)
	assert.InDelta(t, 110.0, item.Total, 0.001)

	assert.InDelta(t, 100.0, createdOrder.Subtotal, 0.001)
	assert.InDelta(t, 10.0, createdOrder.TaxAmount, 0.001)
	assert.InDelta(t, 5.0, createdOrder.ShippingAmount, 0.001)
	assert.InDelta(t, 115.0, createdOrder.TotalAmount, 0.001)
}

func TestOrderService_CreateOrder_ExpressShipping(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	product := testProduct(50, 10)

	var createdOrder *entity.Order

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockProductRepo.EXPECT().FindByIDForUpdate(ctx, product.ID).Return(product, nil)
			mockProductRepo.EXPECT().DecrementStock(ctx, product.ID, 1).Return(nil)
			mockOrderRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.Order")).
				Run(func(ctx context.Context, order *entity.Order) {
					createdOrder = order
				}).
				Return(nil)

			return fn(mockFactory)
		})

	_, err := fx.service.CreateOrder(ctx, usecase.CreateOrderInput{
		CustomerID:      uuid.New(),
		Items:           []usecase.OrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
		ShippingMethod:  "express",
	})

	require.NoError(t, err)
	assert.InDelta(t, 15.0, createdOrder.ShippingAmount, 0.001)
	assert.InDelta(t, 70.0, createdOrder.TotalAmount, 0.001)
}

func TestOrderService_CreateOrder_DigitalItemSkipsStock(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	product := testProduct(20, 0)
	product.IsDigital = true

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			// No DecrementStock expectation: digital items never touch stock.
			mockProductRepo.EXPECT().FindByIDForUpdate(ctx, product.ID).Return(product, nil)
			mockOrderRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.Order")).Return(nil)

			return fn(mockFactory)
		})

	output, err := fx.service.CreateOrder(ctx, usecase.CreateOrderInput{
		CustomerID:      uuid.New(),
		Items:           []usecase.OrderItemInput{{ProductID: product.ID, Quantity: 3}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})

	require.NoError(t, err)
	assert.True(t, output.Order.Items[0].IsDigital)
}

func TestOrderService_CreateOrder_EmptyOrder(t *testing.T) {
	fx := createTestOrderService(t)

	_, err := fx.service.CreateOrder(context.Background(), usecase.CreateOrderInput{
		CustomerID:      uuid.New(),
		Items:           nil,
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})

	assert.ErrorIs(t, err, domainerrors.ErrEmptyOrder)
}

func TestOrderService_CreateOrder_MissingAddress(t *testing.T) {
	fx := createTestOrderService(t)

	_, err := fx.service.CreateOrder(context.Background(), usecase.CreateOrderInput{
		CustomerID: uuid.New(),
		Items:      []usecase.OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})

	assert.ErrorIs(t, err, domainerrors.ErrMissingAddress)
}

func TestOrderService_CreateOrder_InvalidQuantity(t *testing.T) {
	fx := createTestOrderService(t)

	_, err := fx.service.CreateOrder(context.Background(), usecase.CreateOrderInput{
		CustomerID:      uuid.New(),
		Items:           []usecase.OrderItemInput{{ProductID: uuid.New(), Quantity: 0}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})

	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestOrderService_CreateOrder_InsufficientStock(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	product := testProduct(50, 1)

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)

			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockProductRepo.EXPECT().FindByIDForUpdate(ctx, product.ID).Return(product, nil)

			return fn(mockFactory)
		})

	_, err := fx.service.CreateOrder(ctx, usecase.CreateOrderInput{
		CustomerID:      uuid.New(),
		Items:           []usecase.OrderItemInput{{ProductID: product.ID, Quantity: 2}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})

	assert.ErrorIs(t, err, domainerrors.ErrInsufficientStock)
}

func TestOrderService_CreateOrder_UnpublishedProduct(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	product := testProduct(50, 10)
	product.IsPublished = false

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)

			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockProductRepo.EXPECT().FindByIDForUpdate(ctx, product.ID).Return(product, nil)

			return fn(mockFactory)
		})

	_, err := fx.service.CreateOrder(ctx, usecase.CreateOrderInput{
		CustomerID:      uuid.New(),
		Items:           []usecase.OrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})

	assert.ErrorIs(t, err, domainerrors.ErrProductUnavailable)
}

func TestOrderService_CreateOrder_ProductNotFound(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	productID := uuid.New()

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)

			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockProductRepo.EXPECT().FindByIDForUpdate(ctx, productID).Return(nil, repository.ErrProductNotFound)

			return fn(mockFactory)
		})

	_, err := fx.service.CreateOrder(ctx, usecase.CreateOrderInput{
		CustomerID:      uuid.New(),
		Items:           []usecase.OrderItemInput{{ProductID: productID, Quantity: 1}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})

	assert.ErrorIs(t, err, domainerrors.ErrProductNotFound)
}

func TestOrderService_CreateOrder_RetriesOnDuplicateOrderNumber(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	product := testProduct(50, 10)

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Return(repository.ErrDuplicateOrderNumber).
		Once()

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockProductRepo.EXPECT().FindByIDForUpdate(ctx, product.ID).Return(product, nil)
			mockProductRepo.EXPECT().DecrementStock(ctx, product.ID, 1).Return(nil)
			mockOrderRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.Order")).Return(nil)

			return fn(mockFactory)
		}).
		Once()

	output, err := fx.service.CreateOrder(ctx, usecase.CreateOrderInput{
		CustomerID:      uuid.New(),
		Items:           []usecase.OrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	})

	require.NoError(t, err)
	assert.NotNil(t, output.Order)
}

func TestOrderService_CancelOrder_RestoresStockAndRefunds(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	productID := uuid.New()
	order := &entity.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-123456001",
		CustomerID:    customerID,
		Status:        entity.OrderStatusProcessing,
		PaymentStatus: entity.PaymentStatusPaid,
		Items: []*entity.OrderItem{
			{ProductID: productID, Quantity: 2},
		},
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, order.ID).Return(order, nil)
			mockProductRepo.EXPECT().IncrementStock(ctx, productID, 2).Return(nil)
			mockOrderRepo.EXPECT().Update(ctx, mock.AnythingOfType("*entity.Order")).Return(nil)

			return fn(mockFactory)
		})

	output, err := fx.service.CancelOrder(ctx, usecase.CancelOrderInput{
		OrderID:   order.ID,
		Principal: customerPrincipal(customerID),
		Reason:    "changed my mind",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, output.Order.Status)
	assert.Equal(t, entity.PaymentStatusRefunded, output.Order.PaymentStatus)
	assert.Equal(t, "changed my mind", output.Order.Metadata[entity.MetaKeyCancellationReason])
	assert.Equal(t, customerID.String(), output.Order.Metadata[entity.MetaKeyCancelledBy])
	assert.NotEmpty(t, output.Order.Metadata[entity.MetaKeyCancelledAt])
}

func TestOrderService_CancelOrder_DigitalItemsSkipRestore(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	order := &entity.Order{
		ID:            uuid.New(),
		CustomerID:    customerID,
		Status:        entity.OrderStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
		Items: []*entity.OrderItem{
			{ProductID: uuid.New(), Quantity: 1, IsDigital: true},
		},
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			// No IncrementStock expectation: the only item is digital.
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, order.ID).Return(order, nil)
			mockOrderRepo.EXPECT().Update(ctx, mock.AnythingOfType("*entity.Order")).Return(nil)

			return fn(mockFactory)
		})

	output, err := fx.service.CancelOrder(ctx, usecase.CancelOrderInput{
		OrderID:   order.ID,
		Principal: customerPrincipal(customerID),
	})

	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPending, output.Order.PaymentStatus)
}

func TestOrderService_CancelOrder_AlreadyCancelled(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	order := &entity.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     entity.OrderStatusCancelled,
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, order.ID).Return(order, nil)

			return fn(mockFactory)
		})

	_, err := fx.service.CancelOrder(ctx, usecase.CancelOrderInput{
		OrderID:   order.ID,
		Principal: customerPrincipal(customerID),
	})

	assert.ErrorIs(t, err, domainerrors.ErrAlreadyCancelled)
}

func TestOrderService_CancelOrder_FinalizedOrder(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	order := &entity.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     entity.OrderStatusDelivered,
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, order.ID).Return(order, nil)

			return fn(mockFactory)
		})

	_, err := fx.service.CancelOrder(ctx, usecase.CancelOrderInput{
		OrderID:   order.ID,
		Principal: customerPrincipal(customerID),
	})

	assert.ErrorIs(t, err, domainerrors.ErrOrderFinalized)
}

func TestOrderService_CancelOrder_ForbiddenForOtherCustomer(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	order := &entity.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Status:     entity.OrderStatusPending,
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, order.ID).Return(order, nil)

			return fn(mockFactory)
		})

	_, err := fx.service.CancelOrder(ctx, usecase.CancelOrderInput{
		OrderID:   order.ID,
		Principal: customerPrincipal(uuid.New()),
	})

	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestOrderService_CancelOrder_AdminCanCancelAnyOrder(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	order := &entity.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Status:     entity.OrderStatusPending,
		Items:      []*entity.OrderItem{},
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, order.ID).Return(order, nil)
			mockOrderRepo.EXPECT().Update(ctx, mock.AnythingOfType("*entity.Order")).Return(nil)

			return fn(mockFactory)
		})

	admin := adminPrincipal()
	output, err := fx.service.CancelOrder(ctx, usecase.CancelOrderInput{
		OrderID:   order.ID,
		Principal: admin,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, output.Order.Status)
	assert.Equal(t, entity.RoleAdmin.String(), output.Order.Metadata[entity.MetaKeyCancelledByRole])
}

func TestOrderService_UpdateOrderStatus_Success(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	order := &entity.Order{
		ID:     uuid.New(),
		Status: entity.OrderStatusPending,
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, order.ID).Return(order, nil)
			mockOrderRepo.EXPECT().Update(ctx, mock.AnythingOfType("*entity.Order")).Return(nil)

			return fn(mockFactory)
		})

	output, err := fx.service.UpdateOrderStatus(ctx, usecase.UpdateOrderStatusInput{
		OrderID:   order.ID,
		Principal: adminPrincipal(),
		Status:    entity.OrderStatusProcessing,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusProcessing, output.Order.Status)
}

func TestOrderService_UpdateOrderStatus_ForbiddenForCustomer(t *testing.T) {
	fx := createTestOrderService(t)

	_, err := fx.service.UpdateOrderStatus(context.Background(), usecase.UpdateOrderStatusInput{
		OrderID:   uuid.New(),
		Principal: customerPrincipal(uuid.New()),
		Status:    entity.OrderStatusProcessing,
	})

	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestOrderService_UpdateOrderStatus_InvalidStatus(t *testing.T) {
	fx := createTestOrderService(t)

	_, err := fx.service.UpdateOrderStatus(context.Background(), usecase.UpdateOrderStatusInput{
		OrderID:   uuid.New(),
		Principal: adminPrincipal(),
		Status:    entity.OrderStatus("bogus"),
	})

	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrderStatus)
}

func TestOrderService_UpdateOrderStatus_RejectsCancelledTarget(t *testing.T) {
	fx := createTestOrderService(t)

	_, err := fx.service.UpdateOrderStatus(context.Background(), usecase.UpdateOrderStatusInput{
		OrderID:   uuid.New(),
		Principal: adminPrincipal(),
		Status:    entity.OrderStatusCancelled,
	})

	assert.ErrorIs(t, err, domainerrors.ErrInvalidStatusTransition)
}

func TestOrderService_UpdateOrderStatus_InvalidTransition(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	order := &entity.Order{
		ID:     uuid.New(),
		Status: entity.OrderStatusPending,
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, order.ID).Return(order, nil)

			return fn(mockFactory)
		})

	_, err := fx.service.UpdateOrderStatus(ctx, usecase.UpdateOrderStatusInput{
		OrderID:   order.ID,
		Principal: adminPrincipal(),
		Status:    entity.OrderStatusShipped,
	})

	assert.ErrorIs(t, err, domainerrors.ErrInvalidStatusTransition)
}

func TestOrderService_UpdatePaymentStatus_MergesDetails(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	order := &entity.Order{
		ID:            uuid.New(),
		Status:        entity.OrderStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, order.ID).Return(order, nil)
			mockOrderRepo.EXPECT().Update(ctx, mock.AnythingOfType("*entity.Order")).Return(nil)

			return fn(mockFactory)
		})

	output, err := fx.service.UpdatePaymentStatus(ctx, usecase.UpdatePaymentStatusInput{
		OrderID:       order.ID,
		Principal:     adminPrincipal(),
		PaymentStatus: entity.PaymentStatusPaid,
		Details:       map[string]any{"transaction_id": "txn-123"},
	})

	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, output.Order.PaymentStatus)

	details, ok := output.Order.Metadata[entity.MetaKeyPaymentDetails].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "txn-123", details["transaction_id"])
}

func TestOrderService_UpdatePaymentStatus_InvalidStatus(t *testing.T) {
	fx := createTestOrderService(t)

	_, err := fx.service.UpdatePaymentStatus(context.Background(), usecase.UpdatePaymentStatusInput{
		OrderID:       uuid.New(),
		Principal:     adminPrincipal(),
		PaymentStatus: entity.PaymentStatus("bogus"),
	})

	assert.ErrorIs(t, err, domainerrors.ErrInvalidPaymentStatus)
}

func TestOrderService_SaveDraft_Success(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	product := testProduct(30, 5)

	var savedDraft *entity.Order

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			// Drafts snapshot the product without locking or decrementing stock.
			mockProductRepo.EXPECT().FindByID(ctx, product.ID).Return(product, nil)
			mockOrderRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.Order")).
				Run(func(ctx context.Context, order *entity.Order) {
					savedDraft = order
				}).
				Return(nil)

			return fn(mockFactory)
		})

	output, err := fx.service.SaveDraft(ctx, usecase.SaveDraftInput{
		CustomerID: uuid.New(),
		Items:      []usecase.OrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(savedDraft.OrderNumber, entity.DraftNumberPrefix))
	assert.Equal(t, entity.OrderStatusDraft, savedDraft.Status)
	assert.NotEmpty(t, savedDraft.Metadata[entity.MetaKeyDraftSavedAt])
	assert.Equal(t, savedDraft, output.Order)
}

func TestOrderService_SaveDraft_TotalOverride(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	product := testProduct(30, 5)
	override := 99.5

	var savedDraft *entity.Order

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockProductRepo.EXPECT().FindByID(ctx, product.ID).Return(product, nil)
			mockOrderRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.Order")).
				Run(func(ctx context.Context, order *entity.Order) {
					savedDraft = order
				}).
				Return(nil)

			return fn(mockFactory)
		})

	_, err := fx.service.SaveDraft(ctx, usecase.SaveDraftInput{
		CustomerID:  uuid.New(),
		Items:       []usecase.OrderItemInput{{ProductID: product.ID, Quantity: 1}},
		TotalAmount: &override,
	})

	require.NoError(t, err)
	assert.InDelta(t, 99.5, savedDraft.TotalAmount, 0.001)
}

func TestOrderService_SaveDraft_EmptyItemsAllowed(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()

	var savedDraft *entity.Order

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockOrderRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.Order")).
				Run(func(ctx context.Context, order *entity.Order) {
					savedDraft = order
				}).
				Return(nil)

			return fn(mockFactory)
		})

	_, err := fx.service.SaveDraft(ctx, usecase.SaveDraftInput{CustomerID: uuid.New()})

	require.NoError(t, err)
	assert.Empty(t, savedDraft.Items)
	assert.InDelta(t, 0.0, savedDraft.TotalAmount, 0.001)
}

func TestOrderService_UpdateDraft_NotADraft(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	order := &entity.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     entity.OrderStatusPending,
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, order.ID).Return(order, nil)

			return fn(mockFactory)
		})

	_, err := fx.service.UpdateDraft(ctx, usecase.UpdateDraftInput{
		OrderID:   order.ID,
		Principal: customerPrincipal(customerID),
	})

	assert.ErrorIs(t, err, domainerrors.ErrNotADraft)
}

func TestOrderService_UpdateDraft_ReplacesItems(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	product := testProduct(40, 5)
	order := &entity.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     entity.OrderStatusDraft,
		Items: []*entity.OrderItem{
			{ProductID: uuid.New(), Quantity: 1},
		},
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, order.ID).Return(order, nil)
			mockProductRepo.EXPECT().FindByID(ctx, product.ID).Return(product, nil)
			mockOrderRepo.EXPECT().ReplaceItems(ctx, order.ID, mock.AnythingOfType("[]*entity.OrderItem")).Return(nil)
			mockOrderRepo.EXPECT().Update(ctx, mock.AnythingOfType("*entity.Order")).Return(nil)

			return fn(mockFactory)
		})

	output, err := fx.service.UpdateDraft(ctx, usecase.UpdateDraftInput{
		OrderID:        order.ID,
		Principal:      customerPrincipal(customerID),
		Items:          []usecase.OrderItemInput{{ProductID: product.ID, Quantity: 2}},
		ShippingMethod: "standard",
	})

	require.NoError(t, err)
	require.Len(t, output.Order.Items, 1)
	assert.Equal(t, product.ID, output.Order.Items[0].ProductID)
	assert.InDelta(t, 80.0, output.Order.Items[0].Subtotal, 0.001)
	assert.InDelta(t, 93.0, output.Order.TotalAmount, 0.001) // 80 + 8 tax + 5 shipping
}

func TestOrderService_ConvertDraft_Success(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	product := testProduct(25, 4)
	draft := &entity.Order{
		ID:              uuid.New(),
		OrderNumber:     "DFT-123456001",
		CustomerID:      customerID,
		Status:          entity.OrderStatusDraft,
		PaymentStatus:   entity.PaymentStatusPending,
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
		TotalAmount:     60.5,
		Items: []*entity.OrderItem{
			{ProductID: product.ID, Quantity: 2},
		},
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, draft.ID).Return(draft, nil)
			mockProductRepo.EXPECT().FindByIDForUpdate(ctx, product.ID).Return(product, nil)
			mockProductRepo.EXPECT().DecrementStock(ctx, product.ID, 2).Return(nil)
			mockOrderRepo.EXPECT().Update(ctx, mock.AnythingOfType("*entity.Order")).Return(nil)
			mockOrderRepo.EXPECT().ReplaceItems(ctx, draft.ID, mock.AnythingOfType("[]*entity.OrderItem")).Return(nil)

			return fn(mockFactory)
		})

	output, err := fx.service.ConvertDraft(ctx, usecase.ConvertDraftInput{
		OrderID:   draft.ID,
		Principal: customerPrincipal(customerID),
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(output.Order.OrderNumber, entity.OrderNumberPrefix))
	assert.Equal(t, entity.OrderStatusPending, output.Order.Status)
	// Stored draft totals stay as saved; conversion does not reprice.
	assert.InDelta(t, 60.5, output.Order.TotalAmount, 0.001)
	assert.Equal(t, "DFT-123456001", output.Order.Metadata[entity.MetaKeyDraftOrderNumber])
	assert.Equal(t, true, output.Order.Metadata[entity.MetaKeyConvertedFromDraft])
	assert.NotEmpty(t, output.Order.Metadata[entity.MetaKeyConvertedAt])
}

func TestOrderService_ConvertDraft_EmptyDraft(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	draft := &entity.Order{
		ID:              uuid.New(),
		CustomerID:      customerID,
		Status:          entity.OrderStatusDraft,
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, draft.ID).Return(draft, nil)

			return fn(mockFactory)
		})

	_, err := fx.service.ConvertDraft(ctx, usecase.ConvertDraftInput{
		OrderID:   draft.ID,
		Principal: customerPrincipal(customerID),
	})

	assert.ErrorIs(t, err, domainerrors.ErrEmptyOrder)
}

func TestOrderService_ConvertDraft_InsufficientStock(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	product := testProduct(25, 1)
	draft := &entity.Order{
		ID:              uuid.New(),
		CustomerID:      customerID,
		Status:          entity.OrderStatusDraft,
		ShippingAddress: testAddress(),
		BillingAddress:  testAddress(),
		Items: []*entity.OrderItem{
			{ProductID: product.ID, Quantity: 2},
		},
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)
			mockProductRepo := mockRepo.NewMockProductRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockFactory.EXPECT().ProductRepo().Return(mockProductRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, draft.ID).Return(draft, nil)
			mockProductRepo.EXPECT().FindByIDForUpdate(ctx, product.ID).Return(product, nil)

			return fn(mockFactory)
		})

	_, err := fx.service.ConvertDraft(ctx, usecase.ConvertDraftInput{
		OrderID:   draft.ID,
		Principal: customerPrincipal(customerID),
	})

	assert.ErrorIs(t, err, domainerrors.ErrInsufficientStock)
}

func TestOrderService_DeleteDraft_Success(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	draft := &entity.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     entity.OrderStatusDraft,
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, draft.ID).Return(draft, nil)
			mockOrderRepo.EXPECT().Delete(ctx, draft.ID).Return(nil)

			return fn(mockFactory)
		})

	err := fx.service.DeleteDraft(ctx, usecase.DeleteDraftInput{
		OrderID:   draft.ID,
		Principal: customerPrincipal(customerID),
	})

	require.NoError(t, err)
}

func TestOrderService_DeleteDraft_OwnerOnly(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	draft := &entity.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Status:     entity.OrderStatusDraft,
	}

	fx.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockOrderRepo := mockRepo.NewMockOrderRepository(t)

			mockFactory.EXPECT().OrderRepo().Return(mockOrderRepo)
			mockOrderRepo.EXPECT().FindByIDForUpdate(ctx, draft.ID).Return(draft, nil)

			return fn(mockFactory)
		})

	// Even staff cannot delete someone else's draft.
	err := fx.service.DeleteDraft(ctx, usecase.DeleteDraftInput{
		OrderID:   draft.ID,
		Principal: adminPrincipal(),
	})

	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestOrderService_GetOrder_OwnershipEnforced(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	order := &entity.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
	}

	fx.orderRepo.EXPECT().FindByID(ctx, order.ID).Return(order, nil)

	_, err := fx.service.GetOrder(ctx, usecase.GetOrderInput{
		OrderID:   order.ID,
		Principal: customerPrincipal(uuid.New()),
	})

	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestOrderService_GetOrder_Success(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	order := &entity.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
	}

	fx.orderRepo.EXPECT().FindByID(ctx, order.ID).Return(order, nil)

	output, err := fx.service.GetOrder(ctx, usecase.GetOrderInput{
		OrderID:   order.ID,
		Principal: customerPrincipal(customerID),
	})

	require.NoError(t, err)
	assert.Equal(t, order, output.Order)
}

func TestOrderService_GetOrder_NotFound(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	orderID := uuid.New()

	fx.orderRepo.EXPECT().FindByID(ctx, orderID).Return(nil, repository.ErrOrderNotFound)

	_, err := fx.service.GetOrder(ctx, usecase.GetOrderInput{
		OrderID:   orderID,
		Principal: customerPrincipal(uuid.New()),
	})

	assert.ErrorIs(t, err, domainerrors.ErrOrderNotFound)
}

func TestOrderService_ListOrders_DefaultsAndOwnership(t *testing.T) {
	fx := createTestOrderService(t)

	ctx := context.Background()
	customerID := uuid.New()
	orders := []*entity.Order{{ID: uuid.New(), CustomerID: customerID}}

	fx.orderRepo.EXPECT().
		ListByCustomer(ctx, customerID, entity.OrderStatus(""), 20, 0).
		Return(orders, int64(1), nil)

	output, err := fx.service.ListOrders(ctx, usecase.ListOrdersInput{
		CustomerID: customerID,
		Principal:  customerPrincipal(customerID),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), output.Total)
	assert.Len(t, output.Orders, 1)
}

func TestOrderService_ListOrders_ForbiddenForOtherCustomer(t *testing.T) {
	fx := createTestOrderService(t)

	_, err := fx.service.ListOrders(context.Background(), usecase.ListOrdersInput{
		CustomerID: uuid.New(),
		Principal:  customerPrincipal(uuid.New()),
	})

	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}
