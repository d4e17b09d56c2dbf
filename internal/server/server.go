package server

import (
	"context"

	"otomar/internal/client"
	"otomar/internal/config"
	"otomar/internal/handler"
	"otomar/internal/middleware"
	"otomar/internal/service"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Services is everything the API routes call into.
type Services struct {
	Catalog    service.CatalogService
	Cart       service.CartService
	Order      service.OrderService
	Payment    service.PaymentService
	User       service.UserService
	ListSearch service.ListSearchService
	Health     service.HealthService
	Tokens     *service.TokenIssuer
	Recaptcha  client.RecaptchaVerifier
}

type Server struct {
	echo              *echo.Echo
	cfg               *config.API
	tokens            *service.TokenIssuer
	catalogHandler    *handler.CatalogHandler
	cartHandler       *handler.CartHandler
	orderHandler      *handler.OrderHandler
	paymentHandler    *handler.PaymentHandler
	userHandler       *handler.UserHandler
	listSearchHandler *handler.ListSearchHandler
	healthHandler     *handler.HealthHandler
}

func NewServer(cfg *config.API, services *Services, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.NewErrorHandler(log)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middleware.CartSessionHeader,
		},
	}))
	// 5 files of 5 MiB plus form fields
	e.Use(echomw.BodyLimit("30M"))

	s := &Server{
		echo:              e,
		cfg:               cfg,
		tokens:            services.Tokens,
		catalogHandler:    handler.NewCatalogHandler(services.Catalog),
		cartHandler:       handler.NewCartHandler(services.Cart),
		orderHandler:      handler.NewOrderHandler(services.Order),
		paymentHandler:    handler.NewPaymentHandler(services.Payment, log),
		userHandler:       handler.NewUserHandler(services.User, services.Recaptcha),
		listSearchHandler: handler.NewListSearchHandler(services.ListSearch, services.Recaptcha),
		healthHandler:     handler.NewHealthHandler(services.Health),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	optionalAuth := middleware.OptionalAuth(s.tokens)
	requireAuth := middleware.RequireAuth(s.tokens)

	api := s.echo.Group("/api")

	api.GET("/health", s.healthHandler.Live)
	api.GET("/health/ready", s.healthHandler.Ready)

	// -------- catalog --------
	api.GET("/products", s.catalogHandler.SearchProducts)
	api.GET("/products/:slug", s.catalogHandler.GetProduct)
	api.GET("/brands", s.catalogHandler.ListBrands)
	api.GET("/categories", s.catalogHandler.ListCategories)

	// -------- cart --------
	cart := api.Group("/cart", optionalAuth, middleware.CartOwner())
	cart.GET("", s.cartHandler.GetCart)
	cart.DELETE("", s.cartHandler.Clear)
	cart.POST("/items", s.cartHandler.AddItem)
	cart.PUT("/items/:productId", s.cartHandler.UpdateItem)
	cart.DELETE("/items/:productId", s.cartHandler.RemoveItem)

	// -------- orders --------
	orders := api.Group("/orders")
	orders.POST("", s.orderHandler.CreateOrder, optionalAuth, middleware.CartOwner())
	orders.GET("", s.orderHandler.ListOrders, requireAuth)
	orders.GET("/:code", s.orderHandler.GetOrder, optionalAuth)
	orders.PUT("/:code/note", s.orderHandler.UpdateNote, requireAuth, middleware.RequireAdmin())

	// -------- payments --------
	payments := api.Group("/payments")
	payments.POST("/initialize", s.paymentHandler.Initialize)
	payments.POST("/callback", s.paymentHandler.Callback)
	payments.GET("/:orderCode", s.paymentHandler.GetPayment, optionalAuth)

	// -------- auth --------
	limited := middleware.AuthRateLimit(s.cfg.RateLimit)
	auth := api.Group("/auth")
	auth.POST("/register", s.userHandler.Register, limited)
	auth.POST("/login", s.userHandler.Login, limited)
	auth.POST("/refresh", s.userHandler.Refresh, limited)
	auth.POST("/logout", s.userHandler.Logout, requireAuth)
	auth.GET("/me", s.userHandler.Me, requireAuth)

	// -------- list search --------
	api.POST("/list-searches", s.listSearchHandler.Create)
}

func (s *Server) Handler() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	return s.echo.Start(s.cfg.HTTP.Addr())
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
