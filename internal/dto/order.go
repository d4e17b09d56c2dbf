package dto

import (
	"time"

	"otomar/internal/model"

	"github.com/shopspring/decimal"
)

type AddressDTO struct {
	FullName   string `json:"fullName" validate:"required,max=128"`
	Phone      string `json:"phone" validate:"required,max=32"`
	City       string `json:"city" validate:"required,max=64"`
	District   string `json:"district" validate:"required,max=64"`
	Line       string `json:"line" validate:"required,max=512"`
	PostalCode string `json:"postalCode" validate:"omitempty,max=16"`
}

type CorporateDTO struct {
	CompanyName string `json:"companyName" validate:"required,max=256"`
	TaxOffice   string `json:"taxOffice" validate:"required,max=128"`
	TaxNumber   string `json:"taxNumber" validate:"required,numeric,min=10,max=11"`
}

type OrderLineRequest struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gte=1,lte=99"`
}

type CreateOrderRequest struct {
	Email           string              `json:"email" validate:"required,email,max=256"`
	IdentityNumber  string              `json:"identityNumber" validate:"required,len=11,numeric"`
	Phone           string              `json:"phone" validate:"required,max=32"`
	BillingAddress  AddressDTO          `json:"billingAddress" validate:"required"`
	ShippingAddress AddressDTO          `json:"shippingAddress" validate:"required"`
	Corporate       *CorporateDTO       `json:"corporate,omitempty" validate:"omitempty"`
	Items           []*OrderLineRequest `json:"items" validate:"required,min=1,max=50,dive,required"`
}

type UpdateOrderNoteRequest struct {
	Note string `json:"note" validate:"max=1024"`
}

type OrderItemResponse struct {
	ProductID   uint            `json:"productId"`
	ProductCode string          `json:"productCode"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type OrderResponse struct {
	ID              string               `json:"id"`
	Code            string               `json:"code"`
	Status          string               `json:"status"`
	Email           string               `json:"email"`
	Phone           string               `json:"phone"`
	SubTotalAmount  decimal.Decimal      `json:"subTotalAmount"`
	ShippingAmount  decimal.Decimal      `json:"shippingAmount"`
	TotalAmount     decimal.Decimal      `json:"totalAmount"`
	BillingAddress  AddressDTO           `json:"billingAddress"`
	ShippingAddress AddressDTO           `json:"shippingAddress"`
	Corporate       *CorporateDTO        `json:"corporate,omitempty"`
	Note            string               `json:"note,omitempty"`
	Items           []*OrderItemResponse `json:"items"`
	Payment         *PaymentResponse     `json:"payment,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func ToAddress(a AddressDTO) model.Address {
	return model.Address{
		FullName:   a.FullName,
		Phone:      a.Phone,
		City:       a.City,
		District:   a.District,
		Line:       a.Line,
		PostalCode: a.PostalCode,
	}
}

func FromAddress(a model.Address) AddressDTO {
	return AddressDTO{
		FullName:   a.FullName,
		Phone:      a.Phone,
		City:       a.City,
		District:   a.District,
		Line:       a.Line,
		PostalCode: a.PostalCode,
	}
}

func FromOrder(o *model.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:              o.ID,
		Code:            o.Code,
		Status:          string(o.Status),
		Email:           o.Email,
		Phone:           o.Phone,
		SubTotalAmount:  o.SubTotalAmount,
		ShippingAmount:  o.ShippingAmount,
		TotalAmount:     o.TotalAmount,
		BillingAddress:  FromAddress(o.BillingAddress),
		ShippingAddress: FromAddress(o.ShippingAddress),
		Note:            o.Note,
		Items:           make([]*OrderItemResponse, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}

	if o.IsCorporate {
		resp.Corporate = &CorporateDTO{
			CompanyName: o.Corporate.CompanyName,
			TaxOffice:   o.Corporate.TaxOffice,
			TaxNumber:   o.Corporate.TaxNumber,
		}
	}

	for _, item := range o.Items {
		resp.Items = append(resp.Items, &OrderItemResponse{
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal(),
		})
	}

	if o.Payment != nil {
		resp.Payment = FromPayment(o.Payment)
	}

	return resp
}
