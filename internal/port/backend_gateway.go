package port

import (
	"context"

	"storefront-cart/internal/core/domain"
)

// BackendGateway is the REST backend this service reconciles against. The
// backend owns the canonical cart; every mutation returns the canonical
// item so local state can be corrected (the backend may reassign item ids
// or clamp quantity against stock).
type BackendGateway interface {
	FetchCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddCartItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error)
	UpdateCartItem(ctx context.Context, userID, itemID, productID string, quantity int) (*domain.CartItem, error)
	RemoveCartItem(ctx context.Context, userID, itemID string) error
	SubmitOrders(ctx context.Context, userID string, orders []domain.OrderRequest) error
	FetchProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	SaveProfile(ctx context.Context, userID string, profile domain.UserProfile) error
}
