package repository

import (
	"context"
	"time"

	"otomar/internal/model"

	"gorm.io/gorm"
)

// PaymentResult is what the bank callback writes onto a pending payment.
type PaymentResult struct {
	Status         model.PaymentStatus
	ProcReturnCode string
	AuthCode       string
	ErrMsg         string
	TransID        string
	SettlementID   string
	CardBrand      string
	CardIssuer     string
	MaskedPan      string
}

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	FindByOrderCode(ctx context.Context, tx *gorm.DB, orderCode string) (*model.Payment, error)
	UpdatePending(ctx context.Context, tx *gorm.DB, payment *model.Payment) (bool, error)
	Finalize(ctx context.Context, tx *gorm.DB, orderCode string, result *PaymentResult) (bool, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *paymentRepoImpl) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return r.conn(tx).WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindByOrderCode(ctx context.Context, tx *gorm.DB, orderCode string) (*model.Payment, error) {
	var payment model.Payment
	err := r.conn(tx).WithContext(ctx).
		Where("order_code = ?", orderCode).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// UpdatePending refreshes amounts and card of a payment that has not been finalized yet.
func (r *paymentRepoImpl) UpdatePending(ctx context.Context, tx *gorm.DB, payment *model.Payment) (bool, error) {
	result := r.conn(tx).WithContext(ctx).
		Model(&model.Payment{}).
		Where("order_code = ? AND status = ?", payment.OrderCode, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"total_amount":       payment.TotalAmount,
			"sub_total_amount":   payment.SubTotalAmount,
			"shipping_amount":    payment.ShippingAmount,
			"masked_credit_card": payment.MaskedCreditCard,
			"updated_at":         time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// Finalize writes the bank result only while the payment is still pending.
func (r *paymentRepoImpl) Finalize(ctx context.Context, tx *gorm.DB, orderCode string, res *PaymentResult) (bool, error) {
	updates := map[string]interface{}{
		"status":                res.Status,
		"bank_proc_return_code": res.ProcReturnCode,
		"bank_auth_code":        res.AuthCode,
		"bank_err_msg":          res.ErrMsg,
		"bank_trans_id":         res.TransID,
		"bank_settlement_id":    res.SettlementID,
		"bank_card_brand":       res.CardBrand,
		"bank_card_issuer":      res.CardIssuer,
		"updated_at":            time.Now(),
	}
	if res.MaskedPan != "" {
		updates["masked_credit_card"] = res.MaskedPan
	}

	result := r.conn(tx).WithContext(ctx).
		Model(&model.Payment{}).
		Where("order_code = ? AND status = ?", orderCode, model.PaymentStatusPending).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
