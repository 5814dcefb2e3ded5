package notify

import (
	"context"
	"errors"

	"storefront-cart/internal/port"
)

// Multi fans one notification out to several notifiers. Every notifier is
// attempted; failures are joined.
type Multi []port.OrderNotifier

func (m Multi) OrdersChanged(ctx context.Context, userID string) error {
	var errs []error
	for _, n := range m {
		if err := n.OrdersChanged(ctx, userID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
