package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"otomar/internal/dto"
	"otomar/internal/model"
	"otomar/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Refresh rotates the refresh token; the presented one stops working.
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, userID string) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type userServiceImpl struct {
	userRepo   repository.UserRepository
	tokens     *TokenIssuer
	refreshTTL time.Duration
	hashCost   int
	log        zerolog.Logger
	now        func() time.Time
}

func NewUserService(
	userRepo repository.UserRepository,
	tokens *TokenIssuer,
	refreshTTL time.Duration,
	log zerolog.Logger,
) UserService {
	return &userServiceImpl{
		userRepo:   userRepo,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		hashCost:   bcrypt.DefaultCost,
		log:        log,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
		Role:         model.RoleCustomer,
	}

	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return s.issue(ctx, user, "")
}

func (s *userServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user, "")
}

func (s *userServiceImpl) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByRefreshToken(ctx, refreshToken)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("find user by refresh token: %w", err)
	}
	if user.RefreshTokenExpiresAt == nil || !s.now().Before(*user.RefreshTokenExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}

	return s.issue(ctx, user, refreshToken)
}

// issue signs a new access token and stores a fresh refresh token. A
// non-empty previous token must still be the stored one.
func (s *userServiceImpl) issue(ctx context.Context, user *model.User, previous string) (*dto.TokenResponse, error) {
	accessToken, accessExpiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	refreshExpiresAt := s.now().Add(s.refreshTTL)

	rotated, err := s.userRepo.RotateRefreshToken(ctx, user.ID, previous, refreshToken, refreshExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	if !rotated {
		return nil, ErrInvalidRefreshToken
	}

	return &dto.TokenResponse{
		Token:                 accessToken,
		TokenExpiresAt:        accessExpiresAt,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: refreshExpiresAt,
	}, nil
}

func (s *userServiceImpl) Logout(ctx context.Context, userID string) error {
	if err := s.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *userServiceImpl) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return dto.FromUser(user), nil
}
