package dto

import (
	"time"

	"otomar/internal/model"

	"github.com/shopspring/decimal"
)

type InitializePaymentRequest struct {
	OrderCode   string `json:"orderCode" validate:"required,max=16"`
	CardHolder  string `json:"cardHolder" validate:"required,max=128"`
	CardNumber  string `json:"cardNumber" validate:"required,numeric,min=15,max=19"`
	ExpireMonth string `json:"expireMonth" validate:"required,numeric,len=2"`
	ExpireYear  string `json:"expireYear" validate:"required,numeric,len=2"`
	CVV         string `json:"cvv" validate:"required,numeric,min=3,max=4"`
	Installment int    `json:"installment" validate:"gte=0,lte=12"`
}

type InitializePaymentResponse struct {
	OrderCode   string `json:"orderCode"`
	PaymentID   string `json:"paymentId"`
	HTMLContent string `json:"htmlContent"`
}

type PaymentResponse struct {
	ID                 string          `json:"id"`
	OrderCode          string          `json:"orderCode"`
	Status             string          `json:"status"`
	IsSuccess          bool            `json:"isSuccess"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	SubTotalAmount     decimal.Decimal `json:"subTotalAmount"`
	ShippingAmount     decimal.Decimal `json:"shippingAmount"`
	BankProcReturnCode string          `json:"bankProcReturnCode,omitempty"`
	BankErrMsg         string          `json:"bankErrMsg,omitempty"`
	BankCardBrand      string          `json:"bankCardBrand,omitempty"`
	BankCardIssuer     string          `json:"bankCardIssuer,omitempty"`
	MaskedCreditCard   string          `json:"maskedCreditCard,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

type PaymentCallbackResponse struct {
	OrderCode   string `json:"orderCode"`
	OrderStatus string `json:"orderStatus"`
	Status      string `json:"status"`
	IsSuccess   bool   `json:"isSuccess"`
	Message     string `json:"message,omitempty"`
}

// FromPayment fills IsSuccess from the model's derivation; it is never read from input.
func FromPayment(p *model.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:                 p.ID,
		OrderCode:          p.OrderCode,
		Status:             string(p.Status),
		IsSuccess:          p.IsSuccess(),
		TotalAmount:        p.TotalAmount,
		SubTotalAmount:     p.SubTotalAmount,
		ShippingAmount:     p.ShippingAmount,
		BankProcReturnCode: p.BankProcReturnCode,
		BankErrMsg:         p.BankErrMsg,
		BankCardBrand:      p.BankCardBrand,
		BankCardIssuer:     p.BankCardIssuer,
		MaskedCreditCard:   p.MaskedCreditCard,
		CreatedAt:          p.CreatedAt,
	}
}
