// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/infra/metrics"
	"storefront/internal/usecase"
)

// maxOrderNumberAttempts bounds the whole-transaction retries when a
// generated order number collides with an existing one.
const maxOrderNumberAttempts = 3

const defaultCancellationReason = "customer request"

// orderService implements the OrderUsecase interface.
type orderService struct {
	txManager    repository.TransactionManager
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	publisher    service.EventPublisher
	notifier     service.NotificationService
	orderMetrics *metrics.OrderMetrics
	pricing      pricingRules
	logger       *slog.Logger
}

// OrderServiceParams holds dependencies for OrderService, injected by Fx.
type OrderServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	OrderRepo    repository.OrderRepository
	CustomerRepo repository.CustomerRepository
	Publisher    service.EventPublisher      `optional:"true"`
	Notifier     service.NotificationService `optional:"true"`
	OrderMetrics *metrics.OrderMetrics       `optional:"true"`
	Config       *config.Config
	Logger       *slog.Logger
}

// NewOrderService is the constructor for orderService. It receives all dependencies as interfaces.
func NewOrderService(params OrderServiceParams) usecase.OrderUsecase {
	var pricingCfg *config.PricingConfig
	if params.Config != nil {
		pricingCfg = params.Config.Pricing
	}

	return &orderService{
		txManager:    params.TxManager,
		orderRepo:    params.OrderRepo,
		customerRepo: params.CustomerRepo,
		publisher:    params.Publisher,
		notifier:     params.Notifier,
		orderMetrics: params.OrderMetrics,
		pricing:      newPricingRules(pricingCfg),
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *orderService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateOrder places a new order: it validates the requested items against
// live products, decrements physical stock, snapshots product data into
// order items and computes the totals, all within one transaction.
func (srv *orderService) CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*usecase.OrderOutput, error) {
	if err := validateOrderItems(input.Items); err != nil {
		return nil, err
	}
	if input.ShippingAddress.IsZero() || input.BillingAddress.IsZero() {
		return nil, domainerrors.ErrMissingAddress
	}

	srv.log(ctx).Info("Creating order",
		slog.String("customer_id", input.CustomerID.String()),
		slog.Int("item_count", len(input.Items)))

	start := time.Now()

	var createdOrder *entity.Order
	err := srv.withOrderNumberRetry(ctx, func() error {
		return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
			order := &entity.Order{
				ID:              uuid.New(),
				OrderNumber:     entity.NewOrderNumber(entity.OrderNumberPrefix),
				CustomerID:      input.CustomerID,
				Status:          entity.OrderStatusPending,
				PaymentStatus:   entity.PaymentStatusPending,
				ShippingAddress: input.ShippingAddress,
				BillingAddress:  input.BillingAddress,
				PaymentMethod:   input.PaymentMethod,
				ShippingMethod:  input.ShippingMethod,
				Notes:           input.Notes,
			}

			items, err := srv.reserveItems(ctx, repoFactory.ProductRepo(), order.ID, input.Items)
			if err != nil {
				return err
			}
			order.Items = items
			srv.pricing.priceOrder(order)

			if err := repoFactory.OrderRepo().Create(ctx, order); err != nil {
				return errors.Wrap(err, "failed to create order")
			}

			createdOrder = order

			return nil
		})
	})
	if err != nil {
		if srv.orderMetrics != nil {
			srv.orderMetrics.RecordOperationFailed("create")
		}

		return nil, err
	}

	if srv.orderMetrics != nil {
		srv.orderMetrics.RecordOrderCreated(createdOrder.TotalAmount, time.Since(start))
	}
	srv.publishEvent(ctx, service.EventOrderCreated, createdOrder)
	srv.notifyCustomer(ctx, createdOrder, "訂單成立", fmt.Sprintf("您的訂單 %s 已成立", createdOrder.OrderNumber))

	srv.log(ctx).Info("Order created",
		slog.String("order_id", createdOrder.ID.String()),
		slog.String("order_number", createdOrder.OrderNumber),
		slog.Float64("total_amount", createdOrder.TotalAmount))

	return &usecase.OrderOutput{Order: createdOrder}, nil
}

// CancelOrder cancels an order, restoring stock for physical items and
// reconciling a paid order's payment status to refunded. Cancellation is
// recorded in the order metadata with actor, role, reason and timestamp.
func (srv *orderService) CancelOrder(ctx context.Context, input usecase.CancelOrderInput) (*usecase.OrderOutput, error) {
	srv.log(ctx).Info("Cancelling order", slog.String("order_id", input.OrderID.String()))

	var cancelledOrder *entity.Order
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		order, err := srv.lockOrder(ctx, repoFactory.OrderRepo(), input.OrderID)
		if err != nil {
			return err
		}

		if order.Status == entity.OrderStatusCancelled {
			return domainerrors.ErrAlreadyCancelled
		}
		if order.Status == entity.OrderStatusDelivered || order.Status == entity.OrderStatusRefunded {
			return domainerrors.ErrOrderFinalized
		}
		if !order.IsOwnedBy(input.Principal.ID) && !input.Principal.Role.IsStaff() {
			return domainerrors.ErrForbidden
		}

		// Drafts never decremented stock, so there is nothing to restore.
		if !order.IsDraft() {
			if err := restoreStock(ctx, repoFactory.ProductRepo(), order.Items); err != nil {
				return err
			}
		}

		order.Status = entity.OrderStatusCancelled
		if order.PaymentStatus == entity.PaymentStatusPaid {
			order.PaymentStatus = entity.PaymentStatusRefunded
		}

		reason := input.Reason
		if reason == "" {
			reason = defaultCancellationReason
		}
		order.SetMeta(entity.MetaKeyCancelledAt, time.Now().UTC().Format(time.RFC3339))
		order.SetMeta(entity.MetaKeyCancelledBy, input.Principal.ID.String())
		order.SetMeta(entity.MetaKeyCancelledByRole, input.Principal.Role.String())
		order.SetMeta(entity.MetaKeyCancellationReason, reason)

		if err := repoFactory.OrderRepo().Update(ctx, order); err != nil {
			return errors.Wrap(err, "failed to update cancelled order")
		}

		cancelledOrder = order

		return nil
	})
	if err != nil {
		if srv.orderMetrics != nil {
			srv.orderMetrics.RecordOperationFailed("cancel")
		}

		return nil, err
	}

	if srv.orderMetrics != nil {
		srv.orderMetrics.RecordOrderCancelled()
	}
	srv.publishEvent(ctx, service.EventOrderCancelled, cancelledOrder)
	srv.notifyCustomer(ctx, cancelledOrder, "訂單已取消", fmt.Sprintf("您的訂單 %s 已取消", cancelledOrder.OrderNumber))

	srv.log(ctx).Info("Order cancelled",
		slog.String("order_id", cancelledOrder.ID.String()),
		slog.String("payment_status", string(cancelledOrder.PaymentStatus)))

	return &usecase.OrderOutput{Order: cancelledOrder}, nil
}

// UpdateOrderStatus moves an order forward along the fulfillment flow.
// Only staff may call it, and cancellation must go through CancelOrder so
// its inventory side effects always run.
func (srv *orderService) UpdateOrderStatus(ctx context.Context, input usecase.UpdateOrderStatusInput) (*usecase.OrderOutput, error) {
	if !input.Principal.Role.IsStaff() {
		return nil, domainerrors.ErrForbidden
	}
	if !input.Status.IsValid() {
		return nil, domainerrors.ErrInvalidOrderStatus.WithDetails(string(input.Status))
	}
	if input.Status == entity.OrderStatusCancelled {
		return nil, domainerrors.ErrInvalidStatusTransition.WithDetails("cancellation must go through the cancel operation")
	}

	var updatedOrder *entity.Order
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		order, err := srv.lockOrder(ctx, repoFactory.OrderRepo(), input.OrderID)
		if err != nil {
			return err
		}

		if !order.Status.CanTransitionTo(input.Status) {
			return domainerrors.ErrInvalidStatusTransition.WithDetails(
				fmt.Sprintf("%s -> %s", order.Status, input.Status))
		}

		order.Status = input.Status
		if err := repoFactory.OrderRepo().Update(ctx, order); err != nil {
			return errors.Wrap(err, "failed to update order status")
		}

		updatedOrder = order

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.publishEvent(ctx, service.EventOrderStatusChanged, updatedOrder)

	srv.log(ctx).Info("Order status updated",
		slog.String("order_id", updatedOrder.ID.String()),
		slog.String("status", string(updatedOrder.Status)))

	return &usecase.OrderOutput{Order: updatedOrder}, nil
}

// UpdatePaymentStatus records the outcome of a payment attempt. Gateway
// details, when provided, are merged into the order metadata.
func (srv *orderService) UpdatePaymentStatus(ctx context.Context, input usecase.UpdatePaymentStatusInput) (*usecase.OrderOutput, error) {
	if !input.Principal.Role.IsStaff() {
		return nil, domainerrors.ErrForbidden
	}
	if !input.PaymentStatus.IsValid() {
		return nil, domainerrors.ErrInvalidPaymentStatus.WithDetails(string(input.PaymentStatus))
	}

	var updatedOrder *entity.Order
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		order, err := srv.lockOrder(ctx, repoFactory.OrderRepo(), input.OrderID)
		if err != nil {
			return err
		}

		order.PaymentStatus = input.PaymentStatus
		if len(input.Details) > 0 {
			mergePaymentDetails(order, input.Details)
		}

		if err := repoFactory.OrderRepo().Update(ctx, order); err != nil {
			return errors.Wrap(err, "failed to update payment status")
		}

		updatedOrder = order

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Payment status updated",
		slog.String("order_id", updatedOrder.ID.String()),
		slog.String("payment_status", string(updatedOrder.PaymentStatus)))

	return &usecase.OrderOutput{Order: updatedOrder}, nil
}

// SaveDraft stores a work-in-progress order. Items and addresses may be
// incomplete and no stock is reserved; referenced products must exist so
// the snapshot can be taken. An explicit total overrides the computed one.
func (srv *orderService) SaveDraft(ctx context.Context, input usecase.SaveDraftInput) (*usecase.OrderOutput, error) {
	if err := validateDraftItems(input.Items); err != nil {
		return nil, err
	}

	var savedDraft *entity.Order
	err := srv.withOrderNumberRetry(ctx, func() error {
		return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
			order := &entity.Order{
				ID:              uuid.New(),
				OrderNumber:     entity.NewOrderNumber(entity.DraftNumberPrefix),
				CustomerID:      input.CustomerID,
				Status:          entity.OrderStatusDraft,
				PaymentStatus:   entity.PaymentStatusPending,
				ShippingAddress: input.ShippingAddress,
				BillingAddress:  input.BillingAddress,
				PaymentMethod:   input.PaymentMethod,
				ShippingMethod:  input.ShippingMethod,
				Notes:           input.Notes,
			}

			items, err := srv.snapshotItems(ctx, repoFactory.ProductRepo(), order.ID, input.Items)
			if err != nil {
				return err
			}
			order.Items = items
			srv.pricing.priceOrder(order)
			if input.TotalAmount != nil {
				order.TotalAmount = entity.Round2(*input.TotalAmount)
			}
			order.SetMeta(entity.MetaKeyDraftSavedAt, time.Now().UTC().Format(time.RFC3339))

			if err := repoFactory.OrderRepo().Create(ctx, order); err != nil {
				return errors.Wrap(err, "failed to create draft order")
			}

			savedDraft = order

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Draft saved",
		slog.String("order_id", savedDraft.ID.String()),
		slog.String("order_number", savedDraft.OrderNumber))

	return &usecase.OrderOutput{Order: savedDraft}, nil
}

// UpdateDraft reworks an existing draft: its items are replaced wholesale
// and the totals recomputed.
func (srv *orderService) UpdateDraft(ctx context.Context, input usecase.UpdateDraftInput) (*usecase.OrderOutput, error) {
	if err := validateDraftItems(input.Items); err != nil {
		return nil, err
	}

	var updatedDraft *entity.Order
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		order, err := srv.lockOrder(ctx, repoFactory.OrderRepo(), input.OrderID)
		if err != nil {
			return err
		}

		if !order.IsDraft() {
			return domainerrors.ErrNotADraft
		}
		if !order.IsOwnedBy(input.Principal.ID) && !input.Principal.Role.IsStaff() {
			return domainerrors.ErrForbidden
		}

		items, err := srv.snapshotItems(ctx, repoFactory.ProductRepo(), order.ID, input.Items)
		if err != nil {
			return err
		}
		if err := repoFactory.OrderRepo().ReplaceItems(ctx, order.ID, items); err != nil {
			return errors.Wrap(err, "failed to replace draft items")
		}

		order.Items = items
		order.ShippingAddress = input.ShippingAddress
		order.BillingAddress = input.BillingAddress
		order.PaymentMethod = input.PaymentMethod
		order.ShippingMethod = input.ShippingMethod
		order.Notes = input.Notes
		srv.pricing.priceOrder(order)
		if input.TotalAmount != nil {
			order.TotalAmount = entity.Round2(*input.TotalAmount)
		}
		order.SetMeta(entity.MetaKeyDraftSavedAt, time.Now().UTC().Format(time.RFC3339))

		if err := repoFactory.OrderRepo().Update(ctx, order); err != nil {
			return errors.Wrap(err, "failed to update draft order")
		}

		updatedDraft = order

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Draft updated", slog.String("order_id", updatedDraft.ID.String()))

	return &usecase.OrderOutput{Order: updatedDraft}, nil
}

// ConvertDraft turns a draft into a live pending order. The draft's items
// are re-validated against live products and physical stock is decremented;
// a fresh order number is issued while the draft number and conversion time
// are kept in the metadata. Stored totals are kept as saved.
func (srv *orderService) ConvertDraft(ctx context.Context, input usecase.ConvertDraftInput) (*usecase.OrderOutput, error) {
	srv.log(ctx).Info("Converting draft", slog.String("order_id", input.OrderID.String()))

	var convertedOrder *entity.Order
	err := srv.withOrderNumberRetry(ctx, func() error {
		return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
			order, err := srv.lockOrder(ctx, repoFactory.OrderRepo(), input.OrderID)
			if err != nil {
				return err
			}

			if !order.IsDraft() {
				return domainerrors.ErrNotADraft
			}
			if !order.IsOwnedBy(input.Principal.ID) && !input.Principal.Role.IsStaff() {
				return domainerrors.ErrForbidden
			}
			if len(order.Items) == 0 {
				return domainerrors.ErrEmptyOrder
			}
			if order.ShippingAddress.IsZero() || order.BillingAddress.IsZero() {
				return domainerrors.ErrMissingAddress
			}

			productRepo := repoFactory.ProductRepo()
			for _, item := range order.Items {
				product, err := lockProduct(ctx, productRepo, item.ProductID)
				if err != nil {
					return err
				}
				if !product.IsPublished {
					return domainerrors.ErrProductUnavailable.WithDetails(product.Name)
				}
				if !product.HasStock(item.Quantity) {
					return domainerrors.ErrInsufficientStock.WithDetails(product.Name)
				}
				// Refresh the frozen flag so a later cancellation restores
				// stock consistently with what was decremented here.
				item.IsDigital = product.IsDigital
				if !product.IsDigital {
					if err := productRepo.DecrementStock(ctx, product.ID, item.Quantity); err != nil {
						return errors.Wrap(err, "failed to decrement stock")
					}
				}
			}

			draftNumber := order.OrderNumber
			order.OrderNumber = entity.NewOrderNumber(entity.OrderNumberPrefix)
			order.Status = entity.OrderStatusPending
			order.SetMeta(entity.MetaKeyDraftOrderNumber, draftNumber)
			order.SetMeta(entity.MetaKeyConvertedFromDraft, true)
			order.SetMeta(entity.MetaKeyConvertedAt, time.Now().UTC().Format(time.RFC3339))

			if err := repoFactory.OrderRepo().Update(ctx, order); err != nil {
				return errors.Wrap(err, "failed to convert draft order")
			}
			if err := repoFactory.OrderRepo().ReplaceItems(ctx, order.ID, order.Items); err != nil {
				return errors.Wrap(err, "failed to update converted items")
			}

			convertedOrder = order

			return nil
		})
	})
	if err != nil {
		if srv.orderMetrics != nil {
			srv.orderMetrics.RecordOperationFailed("convert")
		}

		return nil, err
	}

	if srv.orderMetrics != nil {
		srv.orderMetrics.RecordDraftConverted(convertedOrder.TotalAmount)
	}
	srv.publishEvent(ctx, service.EventOrderConverted, convertedOrder)
	srv.notifyCustomer(ctx, convertedOrder, "訂單成立", fmt.Sprintf("您的訂單 %s 已成立", convertedOrder.OrderNumber))

	srv.log(ctx).Info("Draft converted",
		slog.String("order_id", convertedOrder.ID.String()),
		slog.String("order_number", convertedOrder.OrderNumber))

	return &usecase.OrderOutput{Order: convertedOrder}, nil
}

// DeleteDraft removes a draft order and its items. Only the owning
// customer may delete their draft.
func (srv *orderService) DeleteDraft(ctx context.Context, input usecase.DeleteDraftInput) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		order, err := srv.lockOrder(ctx, repoFactory.OrderRepo(), input.OrderID)
		if err != nil {
			return err
		}

		if !order.IsDraft() {
			return domainerrors.ErrNotADraft
		}
		if !order.IsOwnedBy(input.Principal.ID) {
			return domainerrors.ErrForbidden
		}

		if err := repoFactory.OrderRepo().Delete(ctx, order.ID); err != nil {
			return errors.Wrap(err, "failed to delete draft order")
		}

		return nil
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Draft deleted", slog.String("order_id", input.OrderID.String()))

	return nil
}

// GetOrder fetches a single order with its items. Customers may only read
// their own orders; staff may read any.
func (srv *orderService) GetOrder(ctx context.Context, input usecase.GetOrderInput) (*usecase.OrderOutput, error) {
	order, err := srv.orderRepo.FindByID(ctx, input.OrderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, domainerrors.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}

	if !order.IsOwnedBy(input.Principal.ID) && !input.Principal.Role.IsStaff() {
		return nil, domainerrors.ErrForbidden
	}

	return &usecase.OrderOutput{Order: order}, nil
}

// ListOrders returns a page of a customer's orders, newest first.
func (srv *orderService) ListOrders(ctx context.Context, input usecase.ListOrdersInput) (*usecase.ListOrdersOutput, error) {
	if input.CustomerID != input.Principal.ID && !input.Principal.Role.IsStaff() {
		return nil, domainerrors.ErrForbidden
	}
	if input.Status != "" && !input.Status.IsValid() {
		return nil, domainerrors.ErrInvalidOrderStatus.WithDetails(string(input.Status))
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	orders, total, err := srv.orderRepo.ListByCustomer(ctx, input.CustomerID, input.Status, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	return &usecase.ListOrdersOutput{Orders: orders, Total: total}, nil
}

// --- helpers ---

func validateOrderItems(items []usecase.OrderItemInput) error {
	if len(items) == 0 {
		return domainerrors.ErrEmptyOrder
	}

	return validateDraftItems(items)
}

// validateDraftItems allows an empty item list but rejects non-positive
// quantities.
func validateDraftItems(items []usecase.OrderItemInput) error {
	for _, item := range items {
		if item.Quantity < 1 {
			return domainerrors.ErrValidationFailed.WithDetails(
				fmt.Sprintf("quantity must be at least 1 for product %s", item.ProductID))
		}
	}

	return nil
}

// lockOrder loads an order under a row lock, translating the repository
// sentinel into the domain error.
func (srv *orderService) lockOrder(ctx context.Context, orderRepo repository.OrderRepository, id uuid.UUID) (*entity.Order, error) {
	order, err := orderRepo.FindByIDForUpdate(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, domainerrors.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}

	return order, nil
}

func lockProduct(ctx context.Context, productRepo repository.ProductRepository, id uuid.UUID) (*entity.Product, error) {
	product, err := productRepo.FindByIDForUpdate(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, domainerrors.ErrProductNotFound.WithDetails(id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find product")
	}

	return product, nil
}

// reserveItems validates each requested line against the locked live
// product, snapshots it into an order item and decrements physical stock.
func (srv *orderService) reserveItems(ctx context.Context, productRepo repository.ProductRepository, orderID uuid.UUID, inputs []usecase.OrderItemInput) ([]*entity.OrderItem, error) {
	items := make([]*entity.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		product, err := lockProduct(ctx, productRepo, in.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsPublished {
			return nil, domainerrors.ErrProductUnavailable.WithDetails(product.Name)
		}
		if !product.HasStock(in.Quantity) {
			return nil, domainerrors.ErrInsufficientStock.WithDetails(product.Name)
		}

		item := newItemSnapshot(orderID, product, in.Quantity)
		srv.pricing.priceItem(item)
		items = append(items, item)

		if !product.IsDigital {
			if err := productRepo.DecrementStock(ctx, product.ID, in.Quantity); err != nil {
				return nil, errors.Wrap(err, "failed to decrement stock")
			}
		}
	}

	return items, nil
}

// snapshotItems builds priced item snapshots without touching stock; used
// by the draft workflow where nothing is reserved.
func (srv *orderService) snapshotItems(ctx context.Context, productRepo repository.ProductRepository, orderID uuid.UUID, inputs []usecase.OrderItemInput) ([]*entity.OrderItem, error) {
	items := make([]*entity.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		product, err := productRepo.FindByID(ctx, in.ProductID)
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domainerrors.ErrProductNotFound.WithDetails(in.ProductID.String())
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to find product")
		}

		item := newItemSnapshot(orderID, product, in.Quantity)
		srv.pricing.priceItem(item)
		items = append(items, item)
	}

	return items, nil
}

func newItemSnapshot(orderID uuid.UUID, product *entity.Product, quantity int) *entity.OrderItem {
	return &entity.OrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		ProductID: product.ID,
		Name:      product.Name,
		SKU:       product.SKU,
		IsDigital: product.IsDigital,
		Quantity:  quantity,
		UnitPrice: product.Price,
	}
}

// restoreStock returns each physical item's quantity to inventory. A
// missing product aborts the transaction so inventory never silently
// diverges from order history.
func restoreStock(ctx context.Context, productRepo repository.ProductRepository, items []*entity.OrderItem) error {
	for _, item := range items {
		if item.IsDigital {
			continue
		}
		if err := productRepo.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return errors.Wrap(err, "failed to restore stock")
		}
	}

	return nil
}

// withOrderNumberRetry re-runs the whole transaction when the generated
// order number collides; the unique constraint is the source of truth.
func (srv *orderService) withOrderNumberRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) {
			return err
		}
		srv.log(ctx).Warn("Order number collision, retrying", slog.Int("attempt", attempt+1))
	}

	return err
}

func mergePaymentDetails(order *entity.Order, details map[string]any) {
	existing, _ := order.Metadata[entity.MetaKeyPaymentDetails].(map[string]any)
	if existing == nil {
		existing = map[string]any{}
	}
	for k, v := range details {
		existing[k] = v
	}
	order.SetMeta(entity.MetaKeyPaymentDetails, existing)
}

// publishEvent emits an order lifecycle event after commit. Failures are
// logged, never surfaced: the order state is already durable.
func (srv *orderService) publishEvent(ctx context.Context, eventType string, order *entity.Order) {
	if srv.publisher == nil {
		return
	}

	event := &service.OrderEvent{
		RequestID:     deliverycontext.GetRequestIDFromContext(ctx),
		EventType:     eventType,
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		CustomerID:    order.CustomerID.String(),
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		TotalAmount:   order.TotalAmount,
		OccurredAt:    time.Now().UTC(),
	}

	if err := srv.publisher.PublishOrderEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish order event",
			slog.String("event_type", eventType),
			slog.String("order_id", order.ID.String()),
			slog.Any("error", err))
	}
}

// notifyCustomer pushes a best-effort notification to the order's owner.
func (srv *orderService) notifyCustomer(ctx context.Context, order *entity.Order, title, body string) {
	if srv.notifier == nil {
		return
	}

	customer, err := srv.customerRepo.FindByID(ctx, order.CustomerID)
	if err != nil || customer.DeviceToken == "" {
		return
	}

	data := map[string]string{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
	}
	if err := srv.notifier.SendSingleNotification(ctx, customer.DeviceToken, title, body, data); err != nil {
		srv.log(ctx).Warn("Failed to send order notification",
			slog.String("order_id", order.ID.String()),
			slog.Any("error", err))
	}
}
