package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"otomar/internal/cache"
	"otomar/internal/client"
	"otomar/internal/dto"
	"otomar/internal/model"
	"otomar/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seeded catalog ids
const (
	brakePadID   uint = 1
	oilFilterID  uint = 2
	airFilterID  uint = 3
	clutchKitID  uint = 4
	sparkPlugID  uint = 5
	wiperBladeID uint = 6
)

type fakeBank struct {
	mu    sync.Mutex
	calls []*client.ThreeDRequest
	err   error
}

func (f *fakeBank) Initialize3D(_ context.Context, req *client.ThreeDRequest) (*client.ThreeDResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &client.ThreeDResponse{HTMLContent: "<form action=\"https://bank.example/acs\">" + req.OrderCode + "</form>"}, nil
}

const testStoreKey = "TEST|KEY"

func (f *fakeBank) VerifyCallback(resp *model.CC5Response) bool {
	return client.VerifyCallbackHash(resp, testStoreKey)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []*client.Mail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, mail *client.Mail) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, mail)
	return f.err
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type testEnv struct {
	db          *gorm.DB
	rdb         *redis.Client
	redis       *miniredis.Miniredis
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	productRepo repository.ProductRepository
	carts       cache.CartStore
	bank        *fakeBank
	mailer      *fakeMailer
	orders      *orderServiceImpl
	payments    PaymentService
	cart        CartService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnv(t, openTestDB(t, "sqlite://file:"+uuid.NewString()+"?mode=memory&cache=shared"))
}

// setupConcurrentTestEnv uses a database file with several connections, so
// transactions of parallel goroutines really contend for the write lock.
func setupConcurrentTestEnv(t *testing.T) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "otomar.db")
	db := openTestDB(t, "sqlite://file:"+path+"?_busy_timeout=10000&_txlock=immediate&_journal_mode=WAL")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)

	return newTestEnv(t, db)
}

func openTestDB(t *testing.T, url string) *gorm.DB {
	t.Helper()
	db, err := client.OpenDatabase(url)
	require.NoError(t, err)
	require.NoError(t, client.AutoMigrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func newTestEnv(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	env := &testEnv{
		db:          db,
		rdb:         rdb,
		redis:       mr,
		orderRepo:   repository.NewOrderRepository(db),
		paymentRepo: repository.NewPaymentRepository(db),
		productRepo: repository.NewProductRepository(db),
		carts:       cache.NewRedisCartStore(rdb),
		bank:        &fakeBank{},
		mailer:      &fakeMailer{},
	}
	require.NoError(t, env.productRepo.Seed(ctx))

	log := zerolog.Nop()
	env.orders = NewOrderService(db, env.orderRepo, env.productRepo, env.carts, testShippingPolicy(), log).(*orderServiceImpl)
	env.orders.now = func() time.Time { return time.Date(2024, 10, 19, 9, 30, 0, 0, time.UTC) }
	env.payments = NewPaymentService(db, env.bank, env.mailer, env.orderRepo, env.paymentRepo, repository.NewInventoryRepository(db), log)
	env.cart = NewCartService(env.carts, env.productRepo, testShippingPolicy(), log)

	return env
}

func testOrderRequest(items ...*dto.OrderLineRequest) *dto.CreateOrderRequest {
	address := dto.AddressDTO{
		FullName: "Ayşe Yılmaz",
		Phone:    "05551234567",
		City:     "İstanbul",
		District: "Kadıköy",
		Line:     "Moda Cad. No:1",
	}
	return &dto.CreateOrderRequest{
		Email:           "Ayse@Example.com",
		IdentityNumber:  "12345678901",
		Phone:           "05551234567",
		BillingAddress:  address,
		ShippingAddress: address,
		Items:           items,
	}
}

// placeOrder creates a guest order for one spark plug.
func (e *testEnv) placeOrder(t *testing.T) *dto.OrderResponse {
	t.Helper()
	order, err := e.orders.Create(context.Background(), &CreateOrderCommand{
		Request: testOrderRequest(&dto.OrderLineRequest{ProductID: sparkPlugID, Quantity: 1}),
	})
	require.NoError(t, err)
	return order
}

func (e *testEnv) stock(t *testing.T, productID uint) int {
	t.Helper()
	product, err := e.productRepo.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return product.Stock
}

func testPaymentRequest(orderCode string) *dto.InitializePaymentRequest {
	return &dto.InitializePaymentRequest{
		OrderCode:   orderCode,
		CardHolder:  "AYSE YILMAZ",
		CardNumber:  "4355084355084358",
		ExpireMonth: "12",
		ExpireYear:  "30",
		CVV:         "000",
	}
}
