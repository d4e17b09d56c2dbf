package client

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"otomar/internal/config"
	"otomar/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrGatewayUnavailable means no transaction reached the bank: network error,
	// timeout, 5xx or an open circuit. Callers may retry.
	ErrGatewayUnavailable = errors.New("bank gateway unavailable")
	// ErrGatewayRejected means the bank answered and refused the request.
	ErrGatewayRejected = errors.New("bank gateway rejected request")
)

type BankClient interface {
	// Initialize3D submits the card to the virtual POS and returns the 3-D Secure page to show the buyer.
	Initialize3D(ctx context.Context, req *ThreeDRequest) (*ThreeDResponse, error)
	// VerifyCallback reports whether the callback carries a valid hash of the store key.
	VerifyCallback(resp *model.CC5Response) bool
}

type ThreeDRequest struct {
	OrderCode   string
	Amount      decimal.Decimal
	Email       string
	CardHolder  string
	CardNumber  string
	ExpireMonth string
	ExpireYear  string
	CVV         string
	Installment int
}

type ThreeDResponse struct {
	HTMLContent string
}

type bankClientImpl struct {
	httpClient *http.Client
	cfg        config.Bank
	breaker    *gobreaker.CircuitBreaker[*ThreeDResponse]
	nonce      func() string
}

func NewBankClient(cfg *config.Bank) BankClient {
	return &bankClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg: *cfg,
		breaker: gobreaker.NewCircuitBreaker[*ThreeDResponse](gobreaker.Settings{
			Name:        "bank-3d-gateway",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// a declined card is a healthy gateway
			IsSuccessful: func(err error) bool {
				return err == nil || !errors.Is(err, ErrGatewayUnavailable)
			},
		}),
		nonce: randomNonce,
	}
}

func (c *bankClientImpl) Initialize3D(ctx context.Context, req *ThreeDRequest) (*ThreeDResponse, error) {
	resp, err := c.breaker.Execute(func() (*ThreeDResponse, error) {
		return c.post3D(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return resp, err
}

func (c *bankClientImpl) post3D(ctx context.Context, req *ThreeDRequest) (*ThreeDResponse, error) {
	form := c.buildForm(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create 3d request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status=%d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrGatewayRejected, resp.StatusCode, string(body))
	}

	return &ThreeDResponse{
		HTMLContent: string(body),
	}, nil
}

func (c *bankClientImpl) buildForm(req *ThreeDRequest) url.Values {
	form := url.Values{}
	form.Set("clientid", c.cfg.ClientID)
	form.Set("storetype", c.cfg.StoreType)
	form.Set("hashAlgorithm", "ver3")
	form.Set("islemtipi", "Auth")
	form.Set("amount", req.Amount.StringFixed(2))
	form.Set("currency", c.cfg.Currency)
	form.Set("oid", req.OrderCode)
	form.Set("okUrl", c.cfg.OkURL)
	form.Set("failUrl", c.cfg.FailURL)
	form.Set("callbackUrl", c.cfg.OkURL)
	form.Set("lang", c.cfg.Lang)
	form.Set("rnd", c.nonce())
	form.Set("email", req.Email)
	form.Set("firmaadi", req.CardHolder)
	form.Set("pan", req.CardNumber)
	form.Set("Ecom_Payment_Card_ExpDate_Month", req.ExpireMonth)
	form.Set("Ecom_Payment_Card_ExpDate_Year", req.ExpireYear)
	form.Set("cv2", req.CVV)
	if req.Installment > 1 {
		form.Set("taksit", strconv.Itoa(req.Installment))
	} else {
		form.Set("taksit", "")
	}
	form.Set("hash", HashParams(form, c.cfg.StoreKey))
	return form
}

// HashParams computes the ver3 request hash: every parameter except hash and
// encoding, ordered by name ignoring case, escaped and joined with '|', then the
// store key, SHA-512, base64.
func HashParams(form url.Values, storeKey string) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		lower := strings.ToLower(k)
		if lower == "hash" || lower == "encoding" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})

	var buf bytes.Buffer
	for _, k := range keys {
		buf.WriteString(escapeHashValue(form.Get(k)))
		buf.WriteByte('|')
	}
	buf.WriteString(escapeHashValue(storeKey))

	sum := sha512.Sum512(buf.Bytes())
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (c *bankClientImpl) VerifyCallback(resp *model.CC5Response) bool {
	return VerifyCallbackHash(resp, c.cfg.StoreKey)
}

// SignCallback sets the hash the gateway puts on a callback.
func SignCallback(resp *model.CC5Response, storeKey string) {
	resp.Hash = HashParams(resp.SignedFields(), storeKey)
}

func VerifyCallbackHash(resp *model.CC5Response, storeKey string) bool {
	if resp == nil || resp.Hash == "" || storeKey == "" {
		return false
	}
	want := HashParams(resp.SignedFields(), storeKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(resp.Hash)) == 1
}

func escapeHashValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, "|", `\|`)
}

// ParseCC5Response decodes a bank callback. The gateway declares ISO-8859-9.
func ParseCC5Response(body []byte) (*model.CC5Response, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "iso-8859-9", "windows-1254":
			return charmap.ISO8859_9.NewDecoder().Reader(input), nil
		case "utf-8", "":
			return input, nil
		}
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}

	var resp model.CC5Response
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode CC5Response: %w", err)
	}
	return &resp, nil
}

// MaskCardNumber keeps the first six and last four digits.
func MaskCardNumber(pan string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, pan)
	if len(digits) < 10 {
		return strings.Repeat("*", len(digits))
	}
	return digits[:6] + strings.Repeat("*", len(digits)-10) + digits[len(digits)-4:]
}

func randomNonce() string {
	b := make([]byte, 10)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
