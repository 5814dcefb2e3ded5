package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderRequest is the payload submitted to the backend order endpoint,
// one per cart item. It lives only for the duration of the request.
type OrderRequest struct {
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Comment   string      `json:"comment"`
	Status    OrderStatus `json:"status"`
}

// OrderRecord is the journal row kept for every accepted submission so
// order-list views can be served without a round trip to the backend.
type OrderRecord struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Comment   string      `json:"comment,omitempty"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
