package port

import (
	"context"

	"storefront-cart/internal/core/domain"
)

type CacheRepository interface {
	// GetCart returns the cached cart snapshot for a user, nil on miss
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)

	// SetCart stores a cart snapshot under the user's key
	SetCart(ctx context.Context, userID string, cart domain.Cart) error

	// InvalidateCart drops the cached snapshot so observers refetch
	// authoritative state after a mutation
	InvalidateCart(ctx context.Context, userID string) error
}
