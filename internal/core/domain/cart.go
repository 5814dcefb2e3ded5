package domain

// CartItem is one line of a cart. The backend assigns ItemID when a product
// is first added; Price and Name are snapshots of the product at add time.
type CartItem struct {
	ItemID    string  `json:"item_id"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image_url"`
	Stock     int     `json:"stock,omitempty"`
}

// Cart is the backend's authoritative snapshot of a user's cart.
// TotalItems and TotalPrice are derived from Items on the backend side.
type Cart struct {
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice float64    `json:"total_price"`
	UserID     string     `json:"user_id"`
}

// Product is the subset of catalog data needed to add an item to a cart.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
	Stock    int     `json:"stock"`
}
