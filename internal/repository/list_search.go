package repository

import (
	"context"

	"otomar/internal/model"

	"gorm.io/gorm"
)

type ListSearchRepository interface {
	Create(ctx context.Context, listSearch *model.ListSearch) error
	FindByID(ctx context.Context, id string) (*model.ListSearch, error)
}

type listSearchRepoImpl struct {
	db *gorm.DB
}

func NewListSearchRepository(db *gorm.DB) ListSearchRepository {
	return &listSearchRepoImpl{db: db}
}

func (r *listSearchRepoImpl) Create(ctx context.Context, listSearch *model.ListSearch) error {
	return r.db.WithContext(ctx).Create(listSearch).Error
}

func (r *listSearchRepoImpl) FindByID(ctx context.Context, id string) (*model.ListSearch, error) {
	var listSearch model.ListSearch
	err := r.db.WithContext(ctx).
		Preload("Files").
		Where("id = ?", id).
		First(&listSearch).Error

	if err != nil {
		return nil, err
	}

	return &listSearch, nil
}
