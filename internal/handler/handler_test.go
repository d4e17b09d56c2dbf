package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"otomar/internal/client"
	"otomar/internal/dto"
	"otomar/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidator_FieldMap(t *testing.T) {
	v := NewRequestValidator()

	err := v.Validate(&dto.CreateOrderRequest{
		Email:          "not-an-email",
		IdentityNumber: "123",
		BillingAddress: dto.AddressDTO{FullName: "A"},
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "must be a valid email address", validationErr.Fields["email"])
	assert.Equal(t, "must be exactly 11 characters", validationErr.Fields["identityNumber"])
	assert.Equal(t, "is required", validationErr.Fields["billingAddress.city"])
	assert.Equal(t, "is required", validationErr.Fields["items"])
}

func TestErrorResponse_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
		{fmt.Errorf("initialize: %w", service.ErrGatewayUnavailable), http.StatusServiceUnavailable, "gateway_unavailable"},
		{service.ErrOrderNotPayable, http.StatusConflict, "order_not_payable"},
		{service.ErrInvalidRefreshToken, http.StatusUnauthorized, "invalid_refresh_token"},
		{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},
		{&ValidationError{Fields: map[string]string{"email": "is required"}}, http.StatusBadRequest, "validation_failed"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		status, body := ErrorResponse(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, body.Code, tc.err.Error())
	}

	status, body := ErrorResponse(echo.NewHTTPError(http.StatusTooManyRequests, "too many requests"))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "too many requests", body.Error)

	_, body = ErrorResponse(errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	assert.NotContains(t, body.Error, "10.0.0.5", "internal details never reach the client")
}

func TestNewErrorHandler_WritesJSON(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = NewErrorHandler(zerolog.Nop())
	e.GET("/", func(c echo.Context) error {
		return fmt.Errorf("initialize 3d secure: %w", service.ErrGatewayUnavailable)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"bank gateway unavailable","code":"gateway_unavailable","details":"retry"}`, rec.Body.String())
}

type stubRecaptcha struct {
	token string
	err   error
}

func (s *stubRecaptcha) Verify(_ context.Context, token, _ string) error {
	s.token = token
	return s.err
}

func TestBind_VerifiesRecaptchaProtectedRequests(t *testing.T) {
	e := echo.New()
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = NewErrorHandler(zerolog.Nop())
	verifier := &stubRecaptcha{err: client.ErrRecaptchaFailed}

	e.POST("/register", func(c echo.Context) error {
		var req dto.RegisterRequest
		if err := bind(c, verifier, &req); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	e.POST("/login", func(c echo.Context) error {
		var req dto.LoginRequest
		if err := bind(c, verifier, &req); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})

	post := func(path, body string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	register := `{"email":"a@example.com","password":"12345678","firstName":"A","lastName":"B","recaptchaToken":"tok"}`
	assert.Equal(t, http.StatusBadRequest, post("/register", register))
	assert.Equal(t, "tok", verifier.token)

	verifier.err = nil
	assert.Equal(t, http.StatusNoContent, post("/register", register))

	verifier.token = ""
	assert.Equal(t, http.StatusNoContent, post("/login", `{"email":"a@example.com","password":"x"}`))
	assert.Empty(t, verifier.token, "login carries no bot check")
}
