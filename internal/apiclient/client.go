// Package apiclient is the web process's typed client for the REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"otomar/internal/config"
	"otomar/internal/dto"

	"github.com/rs/zerolog"
)

// APIError is a non-2xx answer of the API, with its decoded body.
type APIError struct {
	StatusCode int
	Response   dto.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Response.Code != "" {
		return fmt.Sprintf("api status %d: %s (%s)", e.StatusCode, e.Response.Error, e.Response.Code)
	}
	return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Response.Error)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Upload is one file of a list search request.
type Upload struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds the client used for browser requests: cart session header and
// bearer refresh-and-retry are applied to every call. The refresh endpoint
// itself is called without either.
func New(cfg *config.Web, credentials CredentialStore, carts CartSessionResolver, log zerolog.Logger) *Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	baseURL := strings.TrimRight(cfg.APIBaseURL, "/")

	refresher := NewTokenRefresher(baseURL, &http.Client{
		Timeout:   cfg.APITimeout,
		Transport: base,
	})

	auth := NewAuthTransport(base, credentials, refresher, cfg.CredentialValidity, log)

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   cfg.APITimeout,
			Transport: NewCartSessionTransport(auth, carts, isCartCall),
		},
	}
}

// NewWithHTTPClient is used by tests and tools that bring their own transport chain.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// isCartCall selects the calls that address the anonymous cart. Order
// creation clears it.
func isCartCall(req *http.Request) bool {
	path := req.URL.Path
	return strings.HasPrefix(path, "/api/cart") ||
		(req.Method == http.MethodPost && path == "/api/orders")
}

// -------- catalog --------

func (c *Client) SearchProducts(ctx context.Context, q *dto.ProductQuery) (*dto.ProductPage, error) {
	query := url.Values{}
	setIfNotEmpty(query, "q", q.Query)
	setIfNotEmpty(query, "brand", q.Brand)
	setIfNotEmpty(query, "category", q.Category)
	setIfNotEmpty(query, "minPrice", q.MinPrice)
	setIfNotEmpty(query, "maxPrice", q.MaxPrice)
	setIfNotEmpty(query, "sort", q.Sort)
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	var page dto.ProductPage
	if err := c.do(ctx, http.MethodGet, "/api/products", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetProduct(ctx context.Context, slug string) (*dto.ProductResponse, error) {
	var product dto.ProductResponse
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(slug), nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) Brands(ctx context.Context) ([]string, error) {
	var brands []string
	err := c.do(ctx, http.MethodGet, "/api/brands", nil, nil, &brands)
	return brands, err
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &categories)
	return categories, err
}

// -------- cart --------

func (c *Client) GetCart(ctx context.Context) (*dto.CartResponse, error) {
	return c.cart(ctx, http.MethodGet, "/api/cart", nil)
}

func (c *Client) AddCartItem(ctx context.Context, req *dto.AddCartItemRequest) (*dto.CartResponse, error) {
	return c.cart(ctx, http.MethodPost, "/api/cart/items", req)
}

func (c *Client) UpdateCartItem(ctx context.Context, productID uint, req *dto.UpdateCartItemRequest) (*dto.CartResponse, error) {
	return c.cart(ctx, http.MethodPut, cartItemPath(productID), req)
}

func (c *Client) RemoveCartItem(ctx context.Context, productID uint) (*dto.CartResponse, error) {
	return c.cart(ctx, http.MethodDelete, cartItemPath(productID), nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/cart", nil, nil, nil)
}

func (c *Client) cart(ctx context.Context, method, path string, body any) (*dto.CartResponse, error) {
	var cart dto.CartResponse
	if err := c.do(ctx, method, path, nil, body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func cartItemPath(productID uint) string {
	return "/api/cart/items/" + strconv.FormatUint(uint64(productID), 10)
}

// -------- orders --------

func (c *Client) CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	var order dto.OrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders", nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches one order. Guests pass the order email, signed-in users may leave it empty.
func (c *Client) GetOrder(ctx context.Context, code, email string) (*dto.OrderResponse, error) {
	query := url.Values{}
	setIfNotEmpty(query, "email", email)

	var order dto.OrderResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(code), query, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]*dto.OrderResponse, error) {
	var orders []*dto.OrderResponse
	err := c.do(ctx, http.MethodGet, "/api/orders", nil, nil, &orders)
	return orders, err
}

// -------- payments --------

func (c *Client) InitializePayment(ctx context.Context, req *dto.InitializePaymentRequest) (*dto.InitializePaymentResponse, error) {
	var resp dto.InitializePaymentResponse
	if err := c.do(ctx, http.MethodPost, "/api/payments/initialize", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetPayment(ctx context.Context, orderCode, email string) (*dto.PaymentResponse, error) {
	query := url.Values{}
	setIfNotEmpty(query, "email", email)

	var payment dto.PaymentResponse
	if err := c.do(ctx, http.MethodGet, "/api/payments/"+url.PathEscape(orderCode), query, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// -------- auth --------

func (c *Client) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	var tokens dto.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, req, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (c *Client) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	var tokens dto.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
}

func (c *Client) Me(ctx context.Context) (*dto.UserResponse, error) {
	var user dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// -------- list search --------

func (c *Client) CreateListSearch(ctx context.Context, req *dto.CreateListSearchRequest, files []*Upload) (*dto.ListSearchResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"fullName":       req.FullName,
		"email":          req.Email,
		"phone":          req.Phone,
		"vehicleBrand":   req.VehicleBrand,
		"vehicleModel":   req.VehicleModel,
		"chassisNumber":  req.ChassisNumber,
		"parts":          req.Parts,
		"recaptchaToken": req.RecaptchaToken,
	}
	if req.ModelYear > 0 {
		fields["modelYear"] = strconv.Itoa(req.ModelYear)
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", name, err)
		}
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.FileName))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create part %s: %w", f.FileName, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("copy %s: %w", f.FileName, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/list-searches", nil, &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	var resp dto.ListSearchResponse
	if err := c.send(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// -------- health --------

func (c *Client) Ready(ctx context.Context) (*dto.StatusResponse, error) {
	var status dto.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/health/ready", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, query, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(raw, &apiErr.Response); err != nil || apiErr.Response.Error == "" {
			apiErr.Response.Error = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func setIfNotEmpty(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
