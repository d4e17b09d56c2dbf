package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"otomar/internal/cache"
	"otomar/internal/dto"
	"otomar/internal/model"
	"otomar/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxOrderCodeAttempts = 3

// CreateOrderCommand carries a validated checkout request and who placed it.
type CreateOrderCommand struct {
	UserID    *string
	CartOwner string
	Request   *dto.CreateOrderRequest
}

// Viewer identifies who is reading an order. Email is used for guest lookups.
type Viewer struct {
	UserID  string
	IsAdmin bool
	Email   string
}

type OrderService interface {
	Create(ctx context.Context, cmd *CreateOrderCommand) (*dto.OrderResponse, error)
	GetForViewer(ctx context.Context, code string, viewer Viewer) (*dto.OrderResponse, error)
	ListForUser(ctx context.Context, userID string) ([]*dto.OrderResponse, error)
	UpdateNote(ctx context.Context, code, note string) (*dto.OrderResponse, error)
}

type orderServiceImpl struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartStore   cache.CartStore
	shipping    ShippingPolicy
	log         zerolog.Logger

	newCode func(now time.Time) (string, error)
	now     func() time.Time
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartStore cache.CartStore,
	shipping ShippingPolicy,
	log zerolog.Logger,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartStore:   cartStore,
		shipping:    shipping,
		log:         log,
		newCode:     NewOrderCode,
		now:         time.Now,
	}
}

func (s *orderServiceImpl) Create(ctx context.Context, cmd *CreateOrderCommand) (*dto.OrderResponse, error) {
	req := cmd.Request
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	// the same product twice becomes one line
	quantities := make(map[uint]int, len(req.Items))
	productIDs := make([]uint, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		if _, ok := quantities[item.ProductID]; !ok {
			productIDs = append(productIDs, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
		if quantities[item.ProductID] > maxLineQuantity {
			return nil, ErrInvalidQuantity
		}
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	byID := make(map[uint]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]model.OrderItem, 0, len(productIDs))
	subTotal := decimal.Zero
	for _, id := range productIDs {
		product, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
		}
		if !product.IsActive || product.Stock <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Code)
		}

		item := model.OrderItem{
			ProductID:   product.ID,
			ProductCode: product.Code,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    quantities[id],
		}
		subTotal = subTotal.Add(item.LineTotal())
		items = append(items, item)
	}

	shipping, total := s.shipping.Totals(subTotal)

	var order *model.Order
	for attempt := 1; attempt <= maxOrderCodeAttempts; attempt++ {
		code, err := s.newCode(s.now())
		if err != nil {
			return nil, fmt.Errorf("generate order code: %w", err)
		}

		order = &model.Order{
			ID:              uuid.NewString(),
			Code:            code,
			UserID:          cmd.UserID,
			Email:           strings.ToLower(strings.TrimSpace(req.Email)),
			IdentityNumber:  req.IdentityNumber,
			Phone:           req.Phone,
			Status:          model.OrderStatusWaitingForPayment,
			SubTotalAmount:  subTotal,
			ShippingAmount:  shipping,
			TotalAmount:     total,
			BillingAddress:  dto.ToAddress(req.BillingAddress),
			ShippingAddress: dto.ToAddress(req.ShippingAddress),
			Items:           cloneItems(items),
		}
		if req.Corporate != nil {
			order.IsCorporate = true
			order.Corporate = model.CorporateInfo{
				CompanyName: req.Corporate.CompanyName,
				TaxOffice:   req.Corporate.TaxOffice,
				TaxNumber:   req.Corporate.TaxNumber,
			}
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.orderRepo.Create(ctx, tx, order)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == maxOrderCodeAttempts {
			return nil, fmt.Errorf("store order in db: %w", err)
		}
		s.log.Warn().Str("order_code", code).Int("attempt", attempt).Msg("order code collision, retrying")
	}

	if cmd.CartOwner != "" {
		if err := s.cartStore.Clear(ctx, cmd.CartOwner); err != nil {
			s.log.Error().Err(err).Str("order_code", order.Code).Msg("clear cart after order")
		}
	}

	s.log.Info().
		Str("order_code", order.Code).
		Str("total", order.TotalAmount.StringFixed(2)).
		Int("items", len(order.Items)).
		Msg("order created")

	return dto.FromOrder(order), nil
}

func cloneItems(items []model.OrderItem) []model.OrderItem {
	out := make([]model.OrderItem, len(items))
	copy(out, items)
	return out
}

func (s *orderServiceImpl) GetForViewer(ctx context.Context, code string, viewer Viewer) (*dto.OrderResponse, error) {
	order, err := s.findVisible(ctx, code, viewer)
	if err != nil {
		return nil, err
	}
	return dto.FromOrder(order), nil
}

func (s *orderServiceImpl) findVisible(ctx context.Context, code string, viewer Viewer) (*model.Order, error) {
	order, err := s.orderRepo.FindByCode(ctx, nil, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", code, err)
	}

	// strangers get the same answer as for a missing order
	if !canView(order, viewer) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// canView lets admins see everything, users see their own orders and guests
// see a guest order by its code plus the email it was placed with.
func canView(order *model.Order, viewer Viewer) bool {
	switch {
	case viewer.IsAdmin:
		return true
	case order.UserID != nil:
		return viewer.UserID != "" && *order.UserID == viewer.UserID
	default:
		return viewer.Email != "" && strings.EqualFold(strings.TrimSpace(viewer.Email), order.Email)
	}
}

func (s *orderServiceImpl) ListForUser(ctx context.Context, userID string) ([]*dto.OrderResponse, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	resp := make([]*dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, dto.FromOrder(o))
	}
	return resp, nil
}

func (s *orderServiceImpl) UpdateNote(ctx context.Context, code, note string) (*dto.OrderResponse, error) {
	err := s.orderRepo.UpdateNote(ctx, code, strings.TrimSpace(note))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update note of order %s: %w", code, err)
	}

	order, err := s.orderRepo.FindByCode(ctx, nil, code)
	if err != nil {
		return nil, fmt.Errorf("reload order %s: %w", code, err)
	}
	return dto.FromOrder(order), nil
}
