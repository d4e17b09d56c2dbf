package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusWaitingForPayment OrderStatus = "WaitingForPayment"
	OrderStatusPaid              OrderStatus = "Paid"
	OrderStatusPaymentFailed     OrderStatus = "PaymentFailed"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusPaymentFailed
}

// CanTransitionTo reports whether next is a legal successor of s.
// Only WaitingForPayment has successors and both of them are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderStatusWaitingForPayment && next.IsTerminal()
}

type Address struct {
	FullName   string `gorm:"size:128"`
	Phone      string `gorm:"size:32"`
	City       string `gorm:"size:64"`
	District   string `gorm:"size:64"`
	Line       string `gorm:"size:512"`
	PostalCode string `gorm:"size:16"`
}

type CorporateInfo struct {
	CompanyName string `gorm:"size:256"`
	TaxOffice   string `gorm:"size:128"`
	TaxNumber   string `gorm:"size:16"`
}

type Order struct {
	ID             string      `gorm:"primaryKey;size:36;not null"`
	Code           string      `gorm:"size:16;uniqueIndex;not null"` // human readable, shown to the customer and sent to the bank
	UserID         *string     `gorm:"size:36;index"`                // nil for guest checkout
	Email          string      `gorm:"size:256;index;not null"`
	IdentityNumber string      `gorm:"size:11"`
	Phone          string      `gorm:"size:32"`
	Status         OrderStatus `gorm:"size:32;index;not null"`

	SubTotalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ShippingAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	BillingAddress  Address       `gorm:"embedded;embeddedPrefix:billing_"`
	ShippingAddress Address       `gorm:"embedded;embeddedPrefix:shipping_"`
	IsCorporate     bool          `gorm:"not null;default:false"`
	Corporate       CorporateInfo `gorm:"embedded;embeddedPrefix:corporate_"`

	// administrative, editable in every status
	Note string `gorm:"size:1024"`

	Items   []OrderItem `gorm:"foreignKey:OrderID"`
	Payment *Payment    `gorm:"foreignKey:OrderCode;references:Code"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → orders.id
	OrderID     string          `gorm:"size:36;index;not null"`
	ProductID   uint            `gorm:"index;not null"`
	ProductCode string          `gorm:"size:64;not null"`
	ProductName string          `gorm:"size:256;not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity    int             `gorm:"not null"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
