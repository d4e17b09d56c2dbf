package dto

import "github.com/shopspring/decimal"

type AddCartItemRequest struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gte=1,lte=99"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=99"`
}

type CartLineResponse struct {
	ProductID   uint            `json:"productId"`
	ProductCode string          `json:"productCode"`
	ProductName string          `json:"productName"`
	Slug        string          `json:"slug"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type CartResponse struct {
	Lines          []*CartLineResponse `json:"lines"`
	SubTotalAmount decimal.Decimal     `json:"subTotalAmount"`
	ShippingAmount decimal.Decimal     `json:"shippingAmount"`
	TotalAmount    decimal.Decimal     `json:"totalAmount"`
}
