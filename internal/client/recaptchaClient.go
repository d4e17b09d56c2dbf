package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"otomar/internal/config"
)

var ErrRecaptchaFailed = errors.New("recaptcha verification failed")

type RecaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type recaptchaResult struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

type recaptchaClientImpl struct {
	httpClient *http.Client
	cfg        config.Recaptcha
}

// NewRecaptchaVerifier returns a verifier that accepts everything when no secret is configured.
func NewRecaptchaVerifier(cfg *config.Recaptcha) RecaptchaVerifier {
	if cfg.Secret == "" {
		return disabledRecaptcha{}
	}
	return &recaptchaClientImpl{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cfg:        *cfg,
	}
}

func (c *recaptchaClientImpl) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", ErrRecaptchaFailed)
	}

	form := url.Values{}
	form.Set("secret", c.cfg.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create recaptcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("recaptcha request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("recaptcha status %d", resp.StatusCode)
	}

	var result recaptchaResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode recaptcha response: %w", err)
	}

	// v2 responses carry no score
	if !result.Success || (result.Score > 0 && result.Score < c.cfg.MinScore) {
		return fmt.Errorf("%w: score=%.2f codes=%v", ErrRecaptchaFailed, result.Score, result.ErrorCodes)
	}
	return nil
}

type disabledRecaptcha struct{}

func (disabledRecaptcha) Verify(context.Context, string, string) error { return nil }
