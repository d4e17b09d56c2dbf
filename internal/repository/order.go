package repository

import (
	"context"
	"time"

	"otomar/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Order, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, code string, from, to model.OrderStatus) (bool, error)
	UpdateNote(ctx context.Context, code, note string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create stores the order together with its items.
func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return r.conn(tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Order, error) {
	var order model.Order
	err := r.conn(tx).WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Payment").
		Where("code = ?", code).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Payment").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

// TransitionStatus moves the order from one status to another only if it is
// still in from. It reports whether a row was changed, so a replay is a no-op.
func (r *orderRepoImpl) TransitionStatus(ctx context.Context, tx *gorm.DB, code string, from, to model.OrderStatus) (bool, error) {
	result := r.conn(tx).WithContext(ctx).
		Model(&model.Order{}).
		Where("code = ? AND status = ?", code, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *orderRepoImpl) UpdateNote(ctx context.Context, code, note string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"note":       note,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
