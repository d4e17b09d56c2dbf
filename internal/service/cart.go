package service

import (
	"context"
	"fmt"

	"otomar/internal/cache"
	"otomar/internal/dto"
	"otomar/internal/model"
	"otomar/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxLineQuantity = 99

type CartService interface {
	Get(ctx context.Context, owner string) (*dto.CartResponse, error)
	AddItem(ctx context.Context, owner string, req *dto.AddCartItemRequest) (*dto.CartResponse, error)
	UpdateItem(ctx context.Context, owner string, productID uint, quantity int) (*dto.CartResponse, error)
	RemoveItem(ctx context.Context, owner string, productID uint) (*dto.CartResponse, error)
	Clear(ctx context.Context, owner string) error
}

type cartServiceImpl struct {
	store       cache.CartStore
	productRepo repository.ProductRepository
	shipping    ShippingPolicy
	log         zerolog.Logger
}

func NewCartService(
	store cache.CartStore,
	productRepo repository.ProductRepository,
	shipping ShippingPolicy,
	log zerolog.Logger,
) CartService {
	return &cartServiceImpl{
		store:       store,
		productRepo: productRepo,
		shipping:    shipping,
		log:         log,
	}
}

func (s *cartServiceImpl) Get(ctx context.Context, owner string) (*dto.CartResponse, error) {
	if owner == "" {
		return nil, ErrCartOwnerMissing
	}

	lines, err := s.store.Lines(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	return s.price(ctx, lines)
}

func (s *cartServiceImpl) AddItem(ctx context.Context, owner string, req *dto.AddCartItemRequest) (*dto.CartResponse, error) {
	if owner == "" {
		return nil, ErrCartOwnerMissing
	}
	if _, err := s.sellable(ctx, req.ProductID); err != nil {
		return nil, err
	}

	lines, err := s.store.Lines(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	quantity := req.Quantity
	for _, line := range lines {
		if line.ProductID == req.ProductID {
			quantity += line.Quantity
		}
	}
	if quantity < 1 || quantity > maxLineQuantity {
		return nil, ErrInvalidQuantity
	}

	if err := s.store.SetQuantity(ctx, owner, req.ProductID, quantity); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return s.Get(ctx, owner)
}

func (s *cartServiceImpl) UpdateItem(ctx context.Context, owner string, productID uint, quantity int) (*dto.CartResponse, error) {
	if owner == "" {
		return nil, ErrCartOwnerMissing
	}
	if quantity < 1 || quantity > maxLineQuantity {
		return nil, ErrInvalidQuantity
	}
	if _, err := s.sellable(ctx, productID); err != nil {
		return nil, err
	}

	if err := s.store.SetQuantity(ctx, owner, productID, quantity); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	return s.Get(ctx, owner)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, owner string, productID uint) (*dto.CartResponse, error) {
	if owner == "" {
		return nil, ErrCartOwnerMissing
	}
	if err := s.store.Remove(ctx, owner, productID); err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	return s.Get(ctx, owner)
}

func (s *cartServiceImpl) Clear(ctx context.Context, owner string) error {
	if owner == "" {
		return ErrCartOwnerMissing
	}
	return s.store.Clear(ctx, owner)
}

func (s *cartServiceImpl) sellable(ctx context.Context, productID uint) (*model.Product, error) {
	products, err := s.productRepo.FindMany(ctx, []uint{productID})
	if err != nil {
		return nil, fmt.Errorf("find product %d: %w", productID, err)
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	if !products[0].IsActive || products[0].Stock <= 0 {
		return nil, ErrProductUnavailable
	}
	return products[0], nil
}

// price resolves current catalog prices. Lines whose product is gone or
// inactive are left out.
func (s *cartServiceImpl) price(ctx context.Context, lines []model.CartLine) (*dto.CartResponse, error) {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := s.productRepo.FindMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("price cart: %w", err)
	}
	byID := make(map[uint]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	resp := &dto.CartResponse{
		Lines:          make([]*dto.CartLineResponse, 0, len(lines)),
		SubTotalAmount: decimal.Zero,
	}
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok || !product.IsActive {
			s.log.Debug().Uint("product_id", line.ProductID).Msg("skip unavailable cart line")
			continue
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		resp.Lines = append(resp.Lines, &dto.CartLineResponse{
			ProductID:   product.ID,
			ProductCode: product.Code,
			ProductName: product.Name,
			Slug:        product.Slug,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
			LineTotal:   lineTotal,
		})
		resp.SubTotalAmount = resp.SubTotalAmount.Add(lineTotal)
	}

	if len(resp.Lines) == 0 {
		resp.ShippingAmount = decimal.Zero
		resp.TotalAmount = decimal.Zero
		return resp, nil
	}

	resp.ShippingAmount, resp.TotalAmount = s.shipping.Totals(resp.SubTotalAmount)
	return resp, nil
}
