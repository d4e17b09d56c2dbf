package repository

import (
	"context"
	"strings"

	"otomar/internal/model"
	"otomar/internal/slug"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, productID uint) (*model.Product, error)
	FindBySlug(ctx context.Context, slug string) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []uint) ([]*model.Product, error)
	Search(ctx context.Context, filter *model.ProductFilter) ([]*model.Product, int64, error)
	Brands(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{Code: "BSH-0986494524", Name: "Ön Fren Balatası", Brand: "Bosch", Category: "Fren", Price: decimal.RequireFromString("849.90"), Stock: 40},
		{Code: "MNN-W712/95", Name: "Yağ Filtresi", Brand: "Mann", Category: "Filtre", Price: decimal.RequireFromString("189.50"), Stock: 120},
		{Code: "MNN-C30005", Name: "Hava Filtresi", Brand: "Mann", Category: "Filtre", Price: decimal.RequireFromString("259.00"), Stock: 80},
		{Code: "SCH-3000951", Name: "Debriyaj Seti", Brand: "Sachs", Category: "Şanzıman", Price: decimal.RequireFromString("4890.00"), Stock: 8},
		{Code: "NGK-BKR6E", Name: "Buji", Brand: "NGK", Category: "Ateşleme", Price: decimal.RequireFromString("94.90"), Stock: 300},
		{Code: "VLO-402323", Name: "Silecek Süpürgesi 600mm", Brand: "Valeo", Category: "Aksesuar", Price: decimal.RequireFromString("329.00"), Stock: 60},
	}
	for i := range products {
		products[i].Slug = slug.Make(products[i].Name + " " + products[i].Code)
		products[i].IsActive = true
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindBySlug(ctx context.Context, productSlug string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", productSlug, true).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []uint) ([]*model.Product, error) {
	var products []*model.Product
	if len(productIDs) == 0 {
		return products, nil
	}

	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) Search(ctx context.Context, filter *model.ProductFilter) ([]*model.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{}).Where("is_active = ?", true)

	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	if filter.Brand != "" {
		query = query.Where("brand = ?", filter.Brand)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []*model.Product
	err := query.
		Order(sortClause(filter.Sort)).
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&products).Error

	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func sortClause(sort model.ProductSort) string {
	switch sort {
	case model.ProductSortPriceAsc:
		return "price ASC, id ASC"
	case model.ProductSortPriceDesc:
		return "price DESC, id ASC"
	case model.ProductSortName:
		return "name ASC, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}

func (r *productRepoImpl) Brands(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "brand")
}

func (r *productRepoImpl) Categories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "category")
}

func (r *productRepoImpl) distinct(ctx context.Context, column string) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("is_active = ? AND "+column+" <> ''", true).
		Distinct().
		Order(column).
		Pluck(column, &values).Error

	if err != nil {
		return nil, err
	}

	return values, nil
}
