package dto

import (
	"otomar/internal/model"

	"github.com/shopspring/decimal"
)

type ProductQuery struct {
	Query    string `query:"q"`
	Brand    string `query:"brand"`
	Category string `query:"category"`
	MinPrice string `query:"minPrice" validate:"omitempty,numeric"`
	MaxPrice string `query:"maxPrice" validate:"omitempty,numeric"`
	Sort     string `query:"sort" validate:"omitempty,oneof=newest price_asc price_desc name"`
	Page     int    `query:"page" validate:"gte=0"`
	PageSize int    `query:"pageSize" validate:"gte=0,lte=100"`
}

type ProductResponse struct {
	ID          uint            `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	InStock     bool            `json:"inStock"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

type ProductPage struct {
	Items    []*ProductResponse `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

func FromProduct(p *model.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Slug:        p.Slug,
		Brand:       p.Brand,
		Category:    p.Category,
		Description: p.Description,
		Price:       p.Price,
		InStock:     p.Stock > 0,
		ImageURL:    p.ImageURL,
	}
}
