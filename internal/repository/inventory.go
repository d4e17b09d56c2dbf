package repository

import (
	"context"
	"fmt"
	"time"

	"otomar/internal/model"

	"gorm.io/gorm"
)

type InventoryRepository interface {
	// Deduct takes paid order lines out of stock, clamped at zero.
	Deduct(ctx context.Context, tx *gorm.DB, items []model.OrderItem) error
}

type inventoryRepoImpl struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepoImpl{
		db: db,
	}
}

func (r *inventoryRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *inventoryRepoImpl) Deduct(ctx context.Context, tx *gorm.DB, items []model.OrderItem) error {
	for _, item := range items {
		err := r.conn(tx).WithContext(ctx).
			Model(&model.Product{}).
			Where("id = ?", item.ProductID).
			Updates(map[string]interface{}{
				"stock":      gorm.Expr("CASE WHEN stock > ? THEN stock - ? ELSE 0 END", item.Quantity, item.Quantity),
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return fmt.Errorf("deduct stock of product %d: %w", item.ProductID, err)
		}
	}
	return nil
}
