package service

import (
	"context"
	"errors"
	"fmt"

	"otomar/internal/dto"
	"otomar/internal/model"
	"otomar/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type CatalogService interface {
	Search(ctx context.Context, query *dto.ProductQuery) (*dto.ProductPage, error)
	GetBySlug(ctx context.Context, slug string) (*dto.ProductResponse, error)
	Brands(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
}

type catalogServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogServiceImpl{
		productRepo: productRepo,
	}
}

func (s *catalogServiceImpl) Search(ctx context.Context, query *dto.ProductQuery) (*dto.ProductPage, error) {
	filter := &model.ProductFilter{
		Query:    query.Query,
		Brand:    query.Brand,
		Category: query.Category,
		Sort:     model.ProductSort(query.Sort),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	var err error
	if filter.MinPrice, err = parsePrice(query.MinPrice); err != nil {
		return nil, err
	}
	if filter.MaxPrice, err = parsePrice(query.MaxPrice); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	products, total, err := s.productRepo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	items := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		items = append(items, dto.FromProduct(p))
	}

	return &dto.ProductPage{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func parsePrice(v string) (*decimal.Decimal, error) {
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrice, v)
	}
	return &d, nil
}

func (s *catalogServiceImpl) GetBySlug(ctx context.Context, slug string) (*dto.ProductResponse, error) {
	product, err := s.productRepo.FindBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", slug, err)
	}
	return dto.FromProduct(product), nil
}

func (s *catalogServiceImpl) Brands(ctx context.Context) ([]string, error) {
	return s.productRepo.Brands(ctx)
}

func (s *catalogServiceImpl) Categories(ctx context.Context) ([]string, error) {
	return s.productRepo.Categories(ctx)
}
