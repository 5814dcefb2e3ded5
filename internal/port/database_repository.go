package port

import (
	"context"

	"storefront-cart/internal/core/domain"
)

type DatabaseRepository interface {
	// CreateOrder persists one journal row per accepted submission
	CreateOrder(ctx context.Context, record domain.OrderRecord) error

	// ListOrders returns a user's journal rows, newest first
	ListOrders(ctx context.Context, userID string) ([]domain.OrderRecord, error)
}
