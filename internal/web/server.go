// Package web is the browser facing process. It keeps the browsing session
// and forwards everything else to the REST API.
package web

import (
	"context"

	"otomar/internal/apiclient"
	"otomar/internal/config"
	"otomar/internal/handler"
	"otomar/internal/middleware"
	"otomar/internal/session"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

type Server struct {
	echo    *echo.Echo
	cfg     *config.Web
	handler *Handler
}

func NewServer(cfg *config.Web, api *apiclient.Client, store session.Store, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = newErrorHandler(log)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("30M"))
	e.Use(session.Middleware(store, cfg.Session, log))

	s := &Server{
		echo:    e,
		cfg:     cfg,
		handler: NewHandler(api, cfg.CredentialValidity, log),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	h := s.handler

	s.echo.GET("/health", h.Health)

	// -------- account --------
	account := s.echo.Group("/account")
	account.POST("/register", h.Register)
	account.POST("/login", h.Login)
	account.POST("/logout", h.Logout)
	account.GET("/me", h.Me)

	// -------- catalog --------
	s.echo.GET("/products", h.Products)
	s.echo.GET("/products/:slug", h.Product)

	// -------- cart --------
	cart := s.echo.Group("/cart")
	cart.GET("", h.Cart)
	cart.DELETE("", h.ClearCart)
	cart.POST("/items", h.AddCartItem)
	cart.PUT("/items/:productId", h.UpdateCartItem)
	cart.DELETE("/items/:productId", h.RemoveCartItem)

	// -------- checkout --------
	s.echo.POST("/checkout", h.Checkout)
	s.echo.POST("/checkout/:code/pay", h.Pay)
	s.echo.GET("/checkout/:code/result", h.Result)
	s.echo.GET("/orders", h.Orders)

	// -------- list search --------
	s.echo.POST("/list-search", h.ListSearch)
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
