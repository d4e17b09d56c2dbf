package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"otomar/internal/config"
	"otomar/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBankClient(gatewayURL string) BankClient {
	c := NewBankClient(&config.Bank{
		ClientID:   "100200300",
		StoreKey:   "TEST|KEY",
		GatewayURL: gatewayURL,
		OkURL:      "https://api.otomar.test/api/payments/callback",
		FailURL:    "https://api.otomar.test/api/payments/callback",
		StoreType:  "3d_pay",
		Currency:   "949",
		Lang:       "tr",
		Timeout:    2 * time.Second,
	})
	c.(*bankClientImpl).nonce = func() string { return "fixednonce" }
	return c
}

func testThreeDRequest() *ThreeDRequest {
	return &ThreeDRequest{
		OrderCode:   "OT241019ABCDEF",
		Amount:      decimal.RequireFromString("529.89"),
		Email:       "buyer@example.com",
		CardHolder:  "Ali Veli",
		CardNumber:  "4355084355084358",
		ExpireMonth: "12",
		ExpireYear:  "30",
		CVV:         "000",
	}
}

func TestInitialize3D_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "OT241019ABCDEF", r.PostForm.Get("oid"))
		assert.Equal(t, "529.89", r.PostForm.Get("amount"))
		assert.Equal(t, "fixednonce", r.PostForm.Get("rnd"))
		assert.Equal(t, HashParams(r.PostForm, "TEST|KEY"), r.PostForm.Get("hash"))

		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><form id=\"acs\"></form></html>"))
	}))
	defer srv.Close()

	resp, err := newTestBankClient(srv.URL).Initialize3D(context.Background(), testThreeDRequest())

	require.NoError(t, err)
	assert.Contains(t, resp.HTMLContent, `id="acs"`)
}

func TestInitialize3D_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestBankClient(srv.URL).Initialize3D(context.Background(), testThreeDRequest())

	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestInitialize3D_BadRequestIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid hash"))
	}))
	defer srv.Close()

	_, err := newTestBankClient(srv.URL).Initialize3D(context.Background(), testThreeDRequest())

	assert.ErrorIs(t, err, ErrGatewayRejected)
	assert.NotErrorIs(t, err, ErrGatewayUnavailable)
}

func TestInitialize3D_UnreachableIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestBankClient(url).Initialize3D(context.Background(), testThreeDRequest())

	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestInitialize3D_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestBankClient(srv.URL)
	for i := 0; i < 7; i++ {
		_, err := c.Initialize3D(context.Background(), testThreeDRequest())
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	}
	assert.Equal(t, 5, calls)
}

func TestHashParams_EscapesAndIgnoresCase(t *testing.T) {
	a := HashParams(map[string][]string{"b": {"x|y"}, "A": {`c\d`}, "hash": {"ignored"}}, "key")
	b := HashParams(map[string][]string{"A": {`c\d`}, "b": {"x|y"}}, "key")
	c := HashParams(map[string][]string{"A": {`c\d`}, "b": {"x|y"}}, "other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestParseCC5Response_Latin5(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="ISO-8859-9"?><CC5Response><OrderId>OT241019ABCDEF</OrderId><ProcReturnCode>05</ProcReturnCode><ErrMsg>Red</ErrMsg><Extra><CARDISSUER>AKBANK T.A.`)
	body = append(body, 0xDE) // Ş
	body = append(body, []byte(`.</CARDISSUER></Extra></CC5Response>`)...)

	resp, err := ParseCC5Response(body)

	require.NoError(t, err)
	assert.Equal(t, "OT241019ABCDEF", resp.OrderID)
	assert.False(t, resp.Approved())
	assert.Equal(t, "AKBANK T.A.Ş.", resp.Extra.CardIssuer)
}

func TestVerifyCallback(t *testing.T) {
	c := newTestBankClient("http://bank.invalid")
	resp := &model.CC5Response{OrderID: "OT241019ABCDEF", ProcReturnCode: "00", ErrMsg: "a|b"}

	assert.False(t, c.VerifyCallback(resp), "unsigned")

	SignCallback(resp, "TEST|KEY")
	assert.True(t, c.VerifyCallback(resp))

	resp.Extra.MaskedPan = "400000***0002"
	assert.False(t, c.VerifyCallback(resp), "field changed after signing")

	SignCallback(resp, "TEST|KEY")
	assert.True(t, c.VerifyCallback(resp))
	assert.False(t, VerifyCallbackHash(resp, ""), "no store key configured")
}

func TestParseCC5Response_Invalid(t *testing.T) {
	_, err := ParseCC5Response([]byte("not xml"))
	assert.Error(t, err)
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "435508******4358", MaskCardNumber("4355 0843 5508 4358"))
	assert.Equal(t, "****", MaskCardNumber("1234"))
}
