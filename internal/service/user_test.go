package service

import (
	"context"
	"testing"
	"time"

	"otomar/internal/config"
	"otomar/internal/dto"
	"otomar/internal/model"
	"otomar/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testJWTConfig() config.JWT {
	return config.JWT{
		Issuer:          "otomar",
		Audience:        "otomar-web",
		Secret:          "0123456789abcdef0123456789abcdef",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func setupUserService(t *testing.T) (*userServiceImpl, *TokenIssuer) {
	env := setupTestEnv(t)
	tokens := NewTokenIssuer(testJWTConfig())
	svc := NewUserService(repository.NewUserRepository(env.db), tokens, testJWTConfig().RefreshTokenTTL, zerolog.Nop()).(*userServiceImpl)
	svc.hashCost = bcrypt.MinCost
	return svc, tokens
}

func testRegisterRequest() *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Email:     " Mehmet@Example.com ",
		Password:  "gizli-sifre-123",
		FirstName: "Mehmet",
		LastName:  "Demir",
	}
}

func TestUserRegister_IssuesTokens(t *testing.T) {
	svc, tokens := setupUserService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.True(t, resp.RefreshTokenExpiresAt.After(resp.TokenExpiresAt))

	claims, err := tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "mehmet@example.com", claims.Email)
	assert.Equal(t, model.RoleCustomer, claims.Role)

	me, err := svc.Me(ctx, claims.Subject)
	require.NoError(t, err)
	assert.Equal(t, "Mehmet", me.FirstName)

	_, err = svc.Register(ctx, testRegisterRequest())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserLogin(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "MEHMET@example.com", Password: "gizli-sifre-123"})
	assert.NoError(t, err)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "mehmet@example.com", Password: "yanlis"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "gizli-sifre-123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserRefresh_RotatesToken(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()
	first, err := svc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "a rotated token cannot be reused")

	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)

	_, err = svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestUserRefresh_Expired(t *testing.T) {
	svc, _ := setupUserService(t)
	ctx := context.Background()
	resp, err := svc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	_, err = svc.Refresh(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestUserLogout_RevokesRefreshToken(t *testing.T) {
	svc, tokens := setupUserService(t)
	ctx := context.Background()
	resp, err := svc.Register(ctx, testRegisterRequest())
	require.NoError(t, err)
	claims, err := tokens.Parse(resp.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.Subject))

	_, err = svc.Refresh(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestTokenIssuer_RejectsForeignTokens(t *testing.T) {
	issuer := NewTokenIssuer(testJWTConfig())
	user := &model.User{ID: "user-1", Email: "a@example.com", Role: model.RoleAdmin}

	token, _, err := issuer.Issue(user)
	require.NoError(t, err)

	otherAudience := testJWTConfig()
	otherAudience.Audience = "someone-else"
	_, err = NewTokenIssuer(otherAudience).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)

	otherSecret := testJWTConfig()
	otherSecret.Secret = "fedcba9876543210fedcba9876543210"
	_, err = NewTokenIssuer(otherSecret).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)

	late := NewTokenIssuer(testJWTConfig())
	late.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = late.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}
