package port

import (
	"context"

	"storefront-cart/internal/core/domain"
)

// ProfileProvider supplies the acting user's shipping profile. Order
// submission validates against it before touching the network.
type ProfileProvider interface {
	Profile(ctx context.Context, userID string) (*domain.UserProfile, error)
}
