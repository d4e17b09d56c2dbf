package service

import (
	"errors"

	"otomar/internal/client"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrInvalidQuantity    = errors.New("quantity must be between 1 and 99")
	ErrCartOwnerMissing   = errors.New("cart owner is missing")

	ErrEmptyOrder      = errors.New("order has no items")
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPayable = errors.New("order is not waiting for payment")
	ErrForbidden       = errors.New("forbidden")

	ErrPaymentNotFound    = errors.New("payment not found")
	ErrInvalidCallback    = errors.New("invalid bank callback")
	ErrGatewayUnavailable = client.ErrGatewayUnavailable
	ErrGatewayRejected    = client.ErrGatewayRejected

	ErrEmailTaken          = errors.New("email is already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")

	ErrTooManyFiles       = errors.New("too many files")
	ErrFileTooLarge       = errors.New("file is too large")
	ErrFileTypeNotAllowed = errors.New("file type is not allowed")
)
