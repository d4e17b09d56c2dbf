package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"otomar/internal/client"
	"otomar/internal/dto"
	"otomar/internal/model"
	"otomar/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type PaymentService interface {
	// Initialize starts 3-D Secure for an order waiting for payment and returns the bank page.
	Initialize(ctx context.Context, req *dto.InitializePaymentRequest) (*dto.InitializePaymentResponse, error)
	// HandleCallback applies the bank result exactly once. Replays return the stored state.
	HandleCallback(ctx context.Context, cc5 *model.CC5Response) (*dto.PaymentCallbackResponse, error)
	GetByOrderCode(ctx context.Context, orderCode string, viewer Viewer) (*dto.PaymentResponse, error)
}

type paymentServiceImpl struct {
	db            *gorm.DB
	bankClient    client.BankClient
	mailer        client.Mailer
	orderRepo     repository.OrderRepository
	paymentRepo   repository.PaymentRepository
	inventoryRepo repository.InventoryRepository
	log           zerolog.Logger
}

func NewPaymentService(
	db *gorm.DB,
	bankClient client.BankClient,
	mailer client.Mailer,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	inventoryRepo repository.InventoryRepository,
	log zerolog.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:            db,
		bankClient:    bankClient,
		mailer:        mailer,
		orderRepo:     orderRepo,
		paymentRepo:   paymentRepo,
		inventoryRepo: inventoryRepo,
		log:           log,
	}
}

func (s *paymentServiceImpl) Initialize(ctx context.Context, req *dto.InitializePaymentRequest) (*dto.InitializePaymentResponse, error) {
	order, err := s.orderRepo.FindByCode(ctx, nil, req.OrderCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", req.OrderCode, err)
	}
	if order.Status != model.OrderStatusWaitingForPayment || (order.Payment != nil && order.Payment.IsFinal()) {
		return nil, ErrOrderNotPayable
	}

	// nothing is persisted until the gateway has accepted the request
	threeD, err := s.bankClient.Initialize3D(ctx, &client.ThreeDRequest{
		OrderCode:   order.Code,
		Amount:      order.TotalAmount,
		Email:       order.Email,
		CardHolder:  req.CardHolder,
		CardNumber:  req.CardNumber,
		ExpireMonth: req.ExpireMonth,
		ExpireYear:  req.ExpireYear,
		CVV:         req.CVV,
		Installment: req.Installment,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("order_code", order.Code).Msg("3d secure initialization failed")
		return nil, fmt.Errorf("initialize 3d secure for order %s: %w", order.Code, err)
	}

	payment := &model.Payment{
		ID:               uuid.NewString(),
		OrderCode:        order.Code,
		TotalAmount:      order.TotalAmount,
		SubTotalAmount:   order.SubTotalAmount,
		ShippingAmount:   order.ShippingAmount,
		Status:           model.PaymentStatusPending,
		MaskedCreditCard: client.MaskCardNumber(req.CardNumber),
	}

	err = s.storePending(ctx, payment)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent initialize inserted the row first
		err = s.storePending(ctx, payment)
	}
	if errors.Is(err, ErrOrderNotPayable) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("store pending payment for order %s: %w", order.Code, err)
	}

	s.log.Info().Str("order_code", order.Code).Str("payment_id", payment.ID).Msg("payment initialized")

	return &dto.InitializePaymentResponse{
		OrderCode:   order.Code,
		PaymentID:   payment.ID,
		HTMLContent: threeD.HTMLContent,
	}, nil
}

// storePending creates the payment row of the order, or refreshes it while it
// is still pending. payment.ID ends up as the stored row's id.
func (s *paymentServiceImpl) storePending(ctx context.Context, payment *model.Payment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.paymentRepo.FindByOrderCode(ctx, tx, payment.OrderCode)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return s.paymentRepo.Create(ctx, tx, payment)
		case err != nil:
			return err
		}

		// re-initialization reuses the pending row
		updated, err := s.paymentRepo.UpdatePending(ctx, tx, payment)
		if err != nil {
			return err
		}
		if !updated {
			return ErrOrderNotPayable
		}
		payment.ID = existing.ID
		return nil
	})
}

func (s *paymentServiceImpl) HandleCallback(ctx context.Context, cc5 *model.CC5Response) (*dto.PaymentCallbackResponse, error) {
	code := strings.TrimSpace(cc5.OrderID)
	if code == "" {
		return nil, fmt.Errorf("%w: missing OrderId", ErrInvalidCallback)
	}
	if !s.bankClient.VerifyCallback(cc5) {
		s.log.Warn().Str("order_code", code).Str("proc_return_code", cc5.ProcReturnCode).Msg("bank callback hash mismatch")
		return nil, fmt.Errorf("%w: hash mismatch", ErrInvalidCallback)
	}

	var (
		payment *model.Payment
		paid    bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.paymentRepo.FindByOrderCode(ctx, tx, code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		if err != nil {
			return fmt.Errorf("find payment: %w", err)
		}
		if current.IsFinal() {
			payment = current
			return nil
		}

		paymentStatus, orderStatus := model.OutcomeForReturnCode(cc5.ProcReturnCode)
		finalized, err := s.paymentRepo.Finalize(ctx, tx, code, &repository.PaymentResult{
			Status:         paymentStatus,
			ProcReturnCode: cc5.ProcReturnCode,
			AuthCode:       cc5.AuthCode,
			ErrMsg:         cc5.ErrMsg,
			TransID:        cc5.TransID,
			SettlementID:   cc5.Extra.SettleID,
			CardBrand:      cc5.Extra.CardBrand,
			CardIssuer:     cc5.Extra.CardIssuer,
			MaskedPan:      cc5.Extra.MaskedPan,
		})
		if err != nil {
			return fmt.Errorf("finalize payment: %w", err)
		}

		if finalized {
			moved, err := s.orderRepo.TransitionStatus(ctx, tx, code, model.OrderStatusWaitingForPayment, orderStatus)
			if err != nil {
				return fmt.Errorf("transition order: %w", err)
			}
			if !moved {
				return fmt.Errorf("%w: %s", ErrOrderNotPayable, code)
			}
			paid = orderStatus == model.OrderStatusPaid
		}
		if paid {
			order, err := s.orderRepo.FindByCode(ctx, tx, code)
			if err != nil {
				return fmt.Errorf("load paid order: %w", err)
			}
			if err := s.inventoryRepo.Deduct(ctx, tx, order.Items); err != nil {
				return err
			}
		}

		payment, err = s.paymentRepo.FindByOrderCode(ctx, tx, code)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("apply bank callback for order %s: %w", code, err)
	}

	order, err := s.orderRepo.FindByCode(ctx, nil, code)
	if err != nil {
		return nil, fmt.Errorf("reload order %s: %w", code, err)
	}

	s.log.Info().
		Str("order_code", code).
		Str("proc_return_code", cc5.ProcReturnCode).
		Str("payment_status", string(payment.Status)).
		Str("order_status", string(order.Status)).
		Msg("bank callback handled")

	if paid {
		s.sendConfirmation(ctx, order)
	}

	return &dto.PaymentCallbackResponse{
		OrderCode:   code,
		OrderStatus: string(order.Status),
		Status:      string(payment.Status),
		IsSuccess:   payment.IsSuccess(),
		Message:     payment.BankErrMsg,
	}, nil
}

// sendConfirmation never fails the callback; the order is already paid.
func (s *paymentServiceImpl) sendConfirmation(ctx context.Context, order *model.Order) {
	var body strings.Builder
	fmt.Fprintf(&body, "Sayın %s,\n\n", order.BillingAddress.FullName)
	fmt.Fprintf(&body, "%s numaralı siparişinizin ödemesi alınmıştır.\n\n", order.Code)
	for _, item := range order.Items {
		fmt.Fprintf(&body, "- %s x%d  %s TL\n", item.ProductName, item.Quantity, item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(&body, "\nKargo: %s TL\nToplam: %s TL\n", order.ShippingAmount.StringFixed(2), order.TotalAmount.StringFixed(2))

	err := s.mailer.Send(ctx, &client.Mail{
		To:      []string{order.Email},
		Subject: "Siparişiniz alındı - " + order.Code,
		Body:    body.String(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("order_code", order.Code).Msg("send order confirmation")
	}
}

func (s *paymentServiceImpl) GetByOrderCode(ctx context.Context, orderCode string, viewer Viewer) (*dto.PaymentResponse, error) {
	order, err := s.orderRepo.FindByCode(ctx, nil, orderCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", orderCode, err)
	}
	if !canView(order, viewer) || order.Payment == nil {
		return nil, ErrPaymentNotFound
	}
	return dto.FromPayment(order.Payment), nil
}
