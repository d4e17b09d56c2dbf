package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"otomar/internal/dto"
)

type tokenRefresherImpl struct {
	url        string
	httpClient *http.Client
}

// NewTokenRefresher calls POST /api/auth/refresh. httpClient must not carry
// an AuthTransport.
func NewTokenRefresher(baseURL string, httpClient *http.Client) TokenRefresher {
	return &tokenRefresherImpl{
		url:        baseURL + "/api/auth/refresh",
		httpClient: httpClient,
	}
}

func (r *tokenRefresherImpl) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	raw, err := json.Marshal(dto.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("refresh status %d", resp.StatusCode)
	}

	var tokens dto.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("decode refresh response: %w", err)
	}
	return &tokens, nil
}
