package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"otomar/internal/apiclient"
	"otomar/internal/dto"
	"otomar/internal/session"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var errNoSession = errors.New("browser session missing")

type Handler struct {
	api      *apiclient.Client
	validity time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewHandler(api *apiclient.Client, validity time.Duration, log zerolog.Logger) *Handler {
	return &Handler{
		api:      api,
		validity: validity,
		log:      log,
		now:      time.Now,
	}
}

func currentSession(c echo.Context) (*session.Session, error) {
	s := session.FromContext(c.Request().Context())
	if s == nil {
		return nil, errNoSession
	}
	return s, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	return c.Validate(req)
}

// requireSignIn stops anonymous browsers before they reach the API.
func requireSignIn(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	if s.Credential() == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "sign in required")
	}
	return nil
}

// -------- account --------

func (h *Handler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	guestCart := h.guestCart(ctx)

	tokens, err := h.api.Register(ctx, &req)
	if err != nil {
		return err
	}

	user, err := h.signIn(c, tokens, guestCart)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *Handler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	guestCart := h.guestCart(ctx)

	tokens, err := h.api.Login(ctx, &req)
	if err != nil {
		return err
	}

	user, err := h.signIn(c, tokens, guestCart)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// signIn stores the token pair in the session and moves the guest cart lines
// into the user's cart.
func (h *Handler) signIn(c echo.Context, tokens *dto.TokenResponse, guestCart *dto.CartResponse) (*dto.UserResponse, error) {
	ctx := c.Request().Context()

	s, err := currentSession(c)
	if err != nil {
		return nil, err
	}
	s.SetCredential(session.Credential{
		AccessToken:           tokens.Token,
		AccessTokenExpiresAt:  tokens.TokenExpiresAt,
		RefreshToken:          tokens.RefreshToken,
		RefreshTokenExpiresAt: tokens.RefreshTokenExpiresAt,
		ExpiresAt:             h.now().Add(h.validity),
	})

	user, err := h.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	s.SetUserEmail(user.Email)

	if guestCart != nil {
		for _, line := range guestCart.Lines {
			_, err := h.api.AddCartItem(ctx, &dto.AddCartItemRequest{ProductID: line.ProductID, Quantity: line.Quantity})
			if err != nil {
				h.log.Warn().Err(err).Uint("product_id", line.ProductID).Msg("move guest cart line")
			}
		}
		if len(guestCart.Lines) > 0 {
			h.log.Debug().Int("lines", len(guestCart.Lines)).Msg("guest cart moved")
		}
	}

	return user, nil
}

// guestCart is nil when the browser is signed in or the cart cannot be read.
func (h *Handler) guestCart(ctx context.Context) *dto.CartResponse {
	s := session.FromContext(ctx)
	if s == nil || s.Credential() != nil {
		return nil
	}
	cart, err := h.api.GetCart(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("read guest cart")
		return nil
	}
	return cart
}

func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	s, err := currentSession(c)
	if err != nil {
		return err
	}

	if s.Credential() != nil {
		if err := h.api.Logout(ctx); err != nil {
			h.log.Info().Err(err).Msg("api logout")
		}
	}
	s.ClearCredential()

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	if err := requireSignIn(c); err != nil {
		return err
	}

	user, err := h.api.Me(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// -------- catalog --------

func (h *Handler) Products(c echo.Context) error {
	ctx := c.Request().Context()

	var query dto.ProductQuery
	if err := bindAndValidate(c, &query); err != nil {
		return err
	}

	page, err := h.api.SearchProducts(ctx, &query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

func (h *Handler) Product(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.api.GetProduct(ctx, c.Param("slug"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

// -------- cart --------

func productIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("productId"), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	return uint(id), nil
}

func (h *Handler) Cart(c echo.Context) error {
	ctx := c.Request().Context()

	cart, err := h.api.GetCart(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *Handler) AddCartItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.api.AddCartItem(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *Handler) UpdateCartItem(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := productIDParam(c)
	if err != nil {
		return err
	}

	var req dto.UpdateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.api.UpdateCartItem(ctx, productID, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *Handler) RemoveCartItem(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := productIDParam(c)
	if err != nil {
		return err
	}

	cart, err := h.api.RemoveCartItem(ctx, productID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *Handler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.api.ClearCart(ctx); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// -------- checkout --------

// Checkout places an order. Without explicit items the current cart is ordered.
func (h *Handler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	s, err := currentSession(c)
	if err != nil {
		return err
	}

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if req.Email == "" {
		req.Email = s.UserEmail()
	}
	if len(req.Items) == 0 {
		cart, err := h.api.GetCart(ctx)
		if err != nil {
			return err
		}
		for _, line := range cart.Lines {
			req.Items = append(req.Items, &dto.OrderLineRequest{ProductID: line.ProductID, Quantity: line.Quantity})
		}
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := h.api.CreateOrder(ctx, &req)
	if err != nil {
		return err
	}
	s.SetLastOrder(order.Code, order.Email)

	return c.JSON(http.StatusCreated, order)
}

// Pay starts 3-D Secure and relays the bank page to the browser.
func (h *Handler) Pay(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.InitializePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	req.OrderCode = c.Param("code")
	if err := c.Validate(&req); err != nil {
		return err
	}

	resp, err := h.api.InitializePayment(ctx, &req)
	if err != nil {
		return err
	}

	return c.HTML(http.StatusOK, resp.HTMLContent)
}

// Result shows the order after the bank redirect. Guests are recognised by the
// order they placed in this session, or by ?email=.
func (h *Handler) Result(c echo.Context) error {
	ctx := c.Request().Context()

	s, err := currentSession(c)
	if err != nil {
		return err
	}

	code := c.Param("code")
	email := c.QueryParam("email")
	if email == "" {
		email = s.OrderEmail(code)
	}

	order, err := h.api.GetOrder(ctx, code, email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *Handler) Orders(c echo.Context) error {
	ctx := c.Request().Context()

	if err := requireSignIn(c); err != nil {
		return err
	}

	orders, err := h.api.ListOrders(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

// -------- list search --------

func (h *Handler) ListSearch(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateListSearchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var uploads []*apiclient.Upload
	form, err := c.MultipartForm()
	switch {
	case errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form").SetInternal(err)
	default:
		for _, fh := range form.File["files"] {
			f, err := fh.Open()
			if err != nil {
				return err
			}
			defer f.Close()

			uploads = append(uploads, &apiclient.Upload{
				FileName:    fh.Filename,
				ContentType: fh.Header.Get(echo.HeaderContentType),
				Content:     f,
			})
		}
	}

	resp, err := h.api.CreateListSearch(ctx, &req, uploads)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}

// -------- health --------

// Health is ready only when the API answers its own readiness check.
func (h *Handler) Health(c echo.Context) error {
	ctx := c.Request().Context()

	status, err := h.api.Ready(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("api not ready")
		return c.JSON(http.StatusServiceUnavailable, &dto.StatusResponse{
			Status: "unavailable",
			Checks: map[string]string{"api": err.Error()},
		})
	}

	return c.JSON(http.StatusOK, &dto.StatusResponse{
		Status: "ok",
		Checks: map[string]string{"api": status.Status},
	})
}
