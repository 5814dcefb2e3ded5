package port

import "context"

// OrderNotifier fans the "orders changed" signal out to whatever is
// watching order state (websocket order-list views, downstream consumers).
type OrderNotifier interface {
	OrdersChanged(ctx context.Context, userID string) error
}
