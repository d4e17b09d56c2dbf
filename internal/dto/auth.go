package dto

import (
	"time"

	"otomar/internal/model"
)

type RegisterRequest struct {
	Email          string `json:"email" validate:"required,email,max=256"`
	Password       string `json:"password" validate:"required,min=8,max=72"`
	FirstName      string `json:"firstName" validate:"required,max=64"`
	LastName       string `json:"lastName" validate:"required,max=64"`
	Phone          string `json:"phone" validate:"omitempty,max=32"`
	RecaptchaToken string `json:"recaptchaToken"`
}

func (r *RegisterRequest) GetRecaptchaToken() string { return r.RecaptchaToken }

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type TokenResponse struct {
	Token                 string    `json:"token"`
	TokenExpiresAt        time.Time `json:"tokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
}

func FromUser(u *model.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      string(u.Role),
	}
}
