package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"otomar/internal/dto"
	"otomar/internal/session"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const DefaultCredentialValidity = 24 * time.Hour

const refreshTimeout = 15 * time.Second

type CredentialStore interface {
	// Credential is nil when the caller is not signed in.
	Credential(ctx context.Context) *session.Credential
	StoreCredential(ctx context.Context, c session.Credential) error
}

type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
}

// AuthTransport attaches the session's bearer token to outgoing API calls.
// On a 401 it refreshes the token pair once, stores it and replays the
// request exactly once. Any refresh failure returns the original 401.
type AuthTransport struct {
	base        http.RoundTripper
	credentials CredentialStore
	refresher   TokenRefresher
	validity    time.Duration
	log         zerolog.Logger
	now         func() time.Time

	group singleflight.Group
}

func NewAuthTransport(base http.RoundTripper, credentials CredentialStore, refresher TokenRefresher, validity time.Duration, log zerolog.Logger) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if validity <= 0 {
		validity = DefaultCredentialValidity
	}
	return &AuthTransport{
		base:        base,
		credentials: credentials,
		refresher:   refresher,
		validity:    validity,
		log:         log,
		now:         time.Now,
	}
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	now := t.now()
	cred := t.credentials.Credential(ctx)

	first := cloneWithBody(req, body)
	if cred.AccessTokenValid(now) {
		first.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	}

	resp, err := t.base.RoundTrip(first)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || !cred.HasRefreshToken(now) {
		return resp, nil
	}

	tokens, err := t.refresh(ctx, cred.RefreshToken)
	if err != nil {
		t.log.Info().Err(err).Str("path", req.URL.Path).Msg("token refresh failed")
		return resp, nil
	}

	// the original response is dropped only once a retry is certain
	drain(resp)

	if err := t.credentials.StoreCredential(ctx, session.Credential{
		AccessToken:           tokens.Token,
		AccessTokenExpiresAt:  tokens.TokenExpiresAt,
		RefreshToken:          tokens.RefreshToken,
		RefreshTokenExpiresAt: tokens.RefreshTokenExpiresAt,
		ExpiresAt:             now.Add(t.validity),
	}); err != nil {
		t.log.Warn().Err(err).Msg("store refreshed credential")
	}

	retry := cloneWithBody(req, body)
	retry.Header.Set("Authorization", "Bearer "+tokens.Token)
	return t.base.RoundTrip(retry)
}

// refresh collapses concurrent refreshes of the same token in this process.
// The shared call outlives any one caller; each caller stops waiting when its
// own context ends.
func (t *AuthTransport) refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	ch := t.group.DoChan(refreshToken, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return t.refresher.Refresh(refreshCtx, refreshToken)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}

	tokens, _ := res.Val.(*dto.TokenResponse)
	if tokens == nil || tokens.Token == "" {
		return nil, errors.New("refresh returned no token")
	}
	return tokens, nil
}

// CartSessionResolver reports false when there is no browsing session.
type CartSessionResolver interface {
	CartSessionID(ctx context.Context) (string, bool)
}

// CartSessionTransport sends the anonymous cart identity on calls selected
// by match, or on every call when match is nil.
type CartSessionTransport struct {
	base     http.RoundTripper
	resolver CartSessionResolver
	match    func(*http.Request) bool
}

func NewCartSessionTransport(base http.RoundTripper, resolver CartSessionResolver, match func(*http.Request) bool) *CartSessionTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &CartSessionTransport{
		base:     base,
		resolver: resolver,
		match:    match,
	}
}

func (t *CartSessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.match != nil && !t.match(req) {
		return t.base.RoundTrip(req)
	}

	id, ok := t.resolver.CartSessionID(req.Context())
	if !ok || id == "" {
		return t.base.RoundTrip(req)
	}

	out := req.Clone(req.Context())
	out.Header.Set(dto.CartSessionHeader, id)
	return t.base.RoundTrip(out)
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("buffer request body: %w", err)
	}
	return body, nil
}

func cloneWithBody(req *http.Request, body []byte) *http.Request {
	out := req.Clone(req.Context())
	if body == nil {
		out.Body = nil
		if req.Body == http.NoBody {
			out.Body = http.NoBody
		}
		return out
	}

	out.Body = io.NopCloser(bytes.NewReader(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	out.ContentLength = int64(len(body))
	return out
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
