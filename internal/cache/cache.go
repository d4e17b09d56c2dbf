package cache

import (
	"context"

	"otomar/internal/model"
)

// CartStore keeps cart lines per owner. Owners are opaque keys such as
// "user:<id>" or "session:<cart session id>".
type CartStore interface {
	Lines(ctx context.Context, owner string) ([]model.CartLine, error)
	SetQuantity(ctx context.Context, owner string, productID uint, quantity int) error
	Remove(ctx context.Context, owner string, productID uint) error
	Clear(ctx context.Context, owner string) error
}
