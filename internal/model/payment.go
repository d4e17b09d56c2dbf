package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusSuccess PaymentStatus = "Success"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

// BankApprovedCode is the ProcReturnCode the gateway sends for an approved transaction.
const BankApprovedCode = "00"

type Payment struct {
	ID        string `gorm:"primaryKey;size:36;not null"`
	OrderCode string `gorm:"size:16;uniqueIndex;not null"` // one payment per order

	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SubTotalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ShippingAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	Status             PaymentStatus `gorm:"size:16;index;not null"`
	BankProcReturnCode string        `gorm:"size:8"`
	BankAuthCode       string        `gorm:"size:32"`
	BankErrMsg         string        `gorm:"size:512"`
	BankTransID        string        `gorm:"size:64"`
	BankSettlementID   string        `gorm:"size:64"`
	BankCardBrand      string        `gorm:"size:32"`
	BankCardIssuer     string        `gorm:"size:128"`
	MaskedCreditCard   string        `gorm:"size:32"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsSuccess is derived from the bank return code only; there is no stored flag.
func (p *Payment) IsSuccess() bool {
	return p.BankProcReturnCode == BankApprovedCode
}

func (p *Payment) IsFinal() bool {
	return p.Status != PaymentStatusPending
}

// OutcomeForReturnCode maps a bank ProcReturnCode to the terminal payment and order statuses.
func OutcomeForReturnCode(code string) (PaymentStatus, OrderStatus) {
	if code == BankApprovedCode {
		return PaymentStatusSuccess, OrderStatusPaid
	}
	return PaymentStatusFailed, OrderStatusPaymentFailed
}
