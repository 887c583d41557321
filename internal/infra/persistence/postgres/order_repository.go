package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/infra/persistence/model"
)

// orderRepository implements the repository.OrderRepository interface using GORM.
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository bound to the given DB or transaction.
func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

// Create persists the order and its items in one insert; the items ride on
// the GORM association. A collision on the order number unique index maps
// to the retryable sentinel.
func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	m, err := model.OrderModelFromEntity(order)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateOrderNumber
		}

		return errors.Wrap(err, "failed to create order")
	}

	order.CreatedAt = m.CreatedAt
	order.UpdatedAt = m.UpdatedAt

	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.findByID(ctx, r.db, id)
}

// FindByIDForUpdate locks the order row until the enclosing transaction
// ends; the items are preloaded unlocked, they are only ever written
// through their order.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.findByID(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *orderRepository) findByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Order, error) {
	var m model.OrderModel
	err := db.WithContext(ctx).Preload("Items").First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}

	return m.ToEntity()
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, status entity.OrderStatus, limit, offset int) ([]*entity.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.OrderModel{}).Where("customer_id = ?", customerID)
	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count orders")
	}

	var rows []*model.OrderModel
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list orders")
	}

	orders := make([]*entity.Order, 0, len(rows))
	for _, row := range rows {
		order, err := row.ToEntity()
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}

	return orders, total, nil
}

// Update writes the order's own columns. Items are not touched here; the
// draft workflow replaces them explicitly through ReplaceItems.
func (r *orderRepository) Update(ctx context.Context, order *entity.Order) error {
	m, err := model.OrderModelFromEntity(order)
	if err != nil {
		return err
	}
	m.Items = nil

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(m).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateOrderNumber
		}

		return errors.Wrap(err, "failed to update order")
	}

	order.UpdatedAt = m.UpdatedAt

	return nil
}

// ReplaceItems swaps the order's item set wholesale: delete then insert,
// inside the caller's transaction.
func (r *orderRepository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []*entity.OrderItem) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderItemModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to delete order items")
	}

	if len(items) == 0 {
		return nil
	}

	rows := make([]*model.OrderItemModel, 0, len(items))
	for _, item := range items {
		rows = append(rows, model.OrderItemModelFromEntity(item))
	}
	if err := db.Create(rows).Error; err != nil {
		return errors.Wrap(err, "failed to create order items")
	}

	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("order_id = ?", id).Delete(&model.OrderItemModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to delete order items")
	}

	result := db.Where("id = ?", id).Delete(&model.OrderModel{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete order")
	}
	if result.RowsAffected == 0 {
		return repository.ErrOrderNotFound
	}

	return nil
}
