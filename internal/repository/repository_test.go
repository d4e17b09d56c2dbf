package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"otomar/internal/client"
	"otomar/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := client.OpenDatabase("sqlite://file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, client.AutoMigrate(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func newTestOrder(code string) *model.Order {
	return &model.Order{
		ID:             uuid.NewString(),
		Code:           code,
		Email:          "buyer@example.com",
		Status:         model.OrderStatusWaitingForPayment,
		SubTotalAmount: decimal.RequireFromString("499.99"),
		ShippingAmount: decimal.RequireFromString("29.90"),
		TotalAmount:    decimal.RequireFromString("529.89"),
		Items: []model.OrderItem{
			{ProductID: 1, ProductCode: "BSH-1", ProductName: "Balata", UnitPrice: decimal.RequireFromString("499.99"), Quantity: 1},
		},
	}
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, nil, newTestOrder("OT241019AAAAAA")))

	order, err := repo.FindByCode(ctx, nil, "OT241019AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusWaitingForPayment, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("529.89")))
	require.Len(t, order.Items, 1)
	assert.Equal(t, "BSH-1", order.Items[0].ProductCode)
	assert.Nil(t, order.Payment)

	_, err = repo.FindByCode(ctx, nil, "missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestOrderRepository_DuplicateCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, nil, newTestOrder("OT241019AAAAAA")))
	err := repo.Create(ctx, nil, newTestOrder("OT241019AAAAAA"))

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestOrderRepository_TransitionStatusOnlyFromExpected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, nil, newTestOrder("OT241019AAAAAA")))

	changed, err := repo.TransitionStatus(ctx, nil, "OT241019AAAAAA", model.OrderStatusWaitingForPayment, model.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.TransitionStatus(ctx, nil, "OT241019AAAAAA", model.OrderStatusWaitingForPayment, model.OrderStatusPaymentFailed)
	require.NoError(t, err)
	assert.False(t, changed)

	order, err := repo.FindByCode(ctx, nil, "OT241019AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
}

func TestOrderRepository_UpdateNoteInAnyStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	order := newTestOrder("OT241019AAAAAA")
	order.Status = model.OrderStatusPaid
	require.NoError(t, repo.Create(ctx, nil, order))

	require.NoError(t, repo.UpdateNote(ctx, "OT241019AAAAAA", "kargoya verildi"))
	assert.ErrorIs(t, repo.UpdateNote(ctx, "missing", "x"), gorm.ErrRecordNotFound)

	got, err := repo.FindByCode(ctx, nil, "OT241019AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "kargoya verildi", got.Note)
}

func TestPaymentRepository_FinalizeOnce(t *testing.T) {
	db := setupTestDB(t)
	orders := NewOrderRepository(db)
	payments := NewPaymentRepository(db)
	ctx := context.Background()
	require.NoError(t, orders.Create(ctx, nil, newTestOrder("OT241019AAAAAA")))

	require.NoError(t, payments.Create(ctx, nil, &model.Payment{
		ID:          uuid.NewString(),
		OrderCode:   "OT241019AAAAAA",
		TotalAmount: decimal.RequireFromString("529.89"),
		Status:      model.PaymentStatusPending,
	}))

	done, err := payments.Finalize(ctx, nil, "OT241019AAAAAA", &PaymentResult{Status: model.PaymentStatusSuccess, ProcReturnCode: "00", CardBrand: "VISA"})
	require.NoError(t, err)
	assert.True(t, done)

	done, err = payments.Finalize(ctx, nil, "OT241019AAAAAA", &PaymentResult{Status: model.PaymentStatusFailed, ProcReturnCode: "05"})
	require.NoError(t, err)
	assert.False(t, done)

	updated, err := payments.UpdatePending(ctx, nil, &model.Payment{OrderCode: "OT241019AAAAAA"})
	require.NoError(t, err)
	assert.False(t, updated)

	p, err := payments.FindByOrderCode(ctx, nil, "OT241019AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSuccess, p.Status)
	assert.True(t, p.IsSuccess())
	assert.Equal(t, "VISA", p.BankCardBrand)

	err = payments.Create(ctx, nil, &model.Payment{ID: uuid.NewString(), OrderCode: "OT241019AAAAAA", Status: model.PaymentStatusPending})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestProductRepository_Search(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Seed(ctx))
	require.NoError(t, repo.Seed(ctx)) // idempotent

	min := decimal.NewFromInt(150)
	max := decimal.NewFromInt(300)
	products, total, err := repo.Search(ctx, &model.ProductFilter{
		Category: "Filtre",
		MinPrice: &min,
		MaxPrice: &max,
		Sort:     model.ProductSortPriceAsc,
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, products, 2)
	assert.Equal(t, "MNN-W712/95", products[0].Code)
	assert.Equal(t, "MNN-C30005", products[1].Code)

	products, total, err = repo.Search(ctx, &model.ProductFilter{Query: "buji", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "NGK", products[0].Brand)

	brands, err := repo.Brands(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bosch", "Mann", "NGK", "Sachs", "Valeo"}, brands)

	p, err := repo.FindBySlug(ctx, products[0].Slug)
	require.NoError(t, err)
	assert.Equal(t, "NGK-BKR6E", p.Code)
}

func TestUserRepository_RotateRefreshToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &model.User{ID: uuid.NewString(), Email: "a@example.com", PasswordHash: "x", Role: model.RoleCustomer}
	require.NoError(t, repo.Create(ctx, user))

	expires := time.Now().Add(time.Hour)
	ok, err := repo.RotateRefreshToken(ctx, user.ID, "", "first", expires)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.RotateRefreshToken(ctx, user.ID, "first", "second", expires)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.RotateRefreshToken(ctx, user.ID, "first", "third", expires)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.FindByRefreshToken(ctx, "first")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindByRefreshToken(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	require.NoError(t, repo.ClearRefreshToken(ctx, user.ID))
	_, err = repo.FindByRefreshToken(ctx, "second")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInventoryRepository_DeductNeverGoesNegative(t *testing.T) {
	db := setupTestDB(t)
	products := NewProductRepository(db)
	inventory := NewInventoryRepository(db)
	ctx := context.Background()
	require.NoError(t, products.Seed(ctx))

	clutch, err := products.FindBySlug(ctx, "debriyaj-seti-sch-3000951")
	require.NoError(t, err)
	require.Equal(t, 8, clutch.Stock)

	require.NoError(t, inventory.Deduct(ctx, nil, []model.OrderItem{{ProductID: clutch.ID, Quantity: 3}}))
	got, err := products.FindByID(ctx, clutch.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)

	require.NoError(t, inventory.Deduct(ctx, nil, []model.OrderItem{{ProductID: clutch.ID, Quantity: 7}}))
	got, err = products.FindByID(ctx, clutch.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Stock)
}
