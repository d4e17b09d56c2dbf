package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `gorm:"primaryKey"`
	Code        string          `gorm:"size:64;uniqueIndex;not null"` // part number
	Name        string          `gorm:"size:256;not null"`
	Slug        string          `gorm:"size:256;uniqueIndex;not null"`
	Brand       string          `gorm:"size:64;index"`
	Category    string          `gorm:"size:64;index"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Stock       int             `gorm:"not null;default:0"`
	ImageURL    string          `gorm:"size:512"`
	IsActive    bool            `gorm:"not null;default:true;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortPriceAsc  ProductSort = "price_asc"
	ProductSortPriceDesc ProductSort = "price_desc"
	ProductSortName      ProductSort = "name"
)

type ProductFilter struct {
	Query    string
	Brand    string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     ProductSort
	Page     int
	PageSize int
}

// CartLine is one product in a shopping cart, priced at read time.
type CartLine struct {
	ProductID uint
	Quantity  int
}
