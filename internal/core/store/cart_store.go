package store

import (
	"sync"

	"storefront-cart/internal/core/domain"
)

// CartStore holds the canonical client-facing cart state. Every mutation is
// applied under the lock and recomputes the derived totals before returning,
// so readers never observe totals out of sync with the item list. The store
// is injected where needed; one instance per user session.
type CartStore struct {
	mu         sync.Mutex
	items      []domain.CartItem
	userID     string
	totalItems int
	totalPrice float64
	open       bool
	loading    bool
	lastAdded  *domain.CartItem
}

// State is a point-in-time copy of the store. Items is a fresh slice the
// caller may keep.
type State struct {
	Items         []domain.CartItem `json:"items"`
	TotalItems    int               `json:"total_items"`
	TotalPrice    float64           `json:"total_price"`
	UserID        string            `json:"user_id"`
	Open          bool              `json:"is_open"`
	Loading       bool              `json:"loading"`
	LastAddedItem *domain.CartItem  `json:"last_added_item,omitempty"`
}

func NewCartStore() *CartStore {
	return &CartStore{loading: true}
}

func (s *CartStore) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		Items:      append([]domain.CartItem(nil), s.items...),
		TotalItems: s.totalItems,
		TotalPrice: s.totalPrice,
		UserID:     s.userID,
		Open:       s.open,
		Loading:    s.loading,
	}
	if s.lastAdded != nil {
		last := *s.lastAdded
		state.LastAddedItem = &last
	}
	return state
}

// SetCart replaces the whole store from a backend snapshot. The backend is
// authoritative, so this is a full overwrite, never a merge.
func (s *CartStore) SetCart(cart domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]domain.CartItem(nil), cart.Items...)
	s.userID = cart.UserID
	s.totalItems = cart.TotalItems
	s.totalPrice = cart.TotalPrice
	s.loading = false
}

// AddItem merges an item into the cart. An existing line with the same
// product id gets its quantity incremented; otherwise the item is appended.
// The incoming item is remembered as the last added one, which drives the
// transient "added to cart" indicator.
func (s *CartStore) AddItem(item domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.items {
		if s.items[i].ProductID == item.ProductID {
			s.items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, item)
	}

	last := item
	s.lastAdded = &last
	s.recompute()
}

// UpdateQuantity sets the quantity of the line with the given item id. An
// unknown id is a no-op, not an error: the item may have been removed by a
// concurrent mutation.
func (s *CartStore) UpdateQuantity(itemID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ItemID == itemID {
			s.items[i].Quantity = quantity
			s.recompute()
			return
		}
	}
}

// RemoveItem drops the line with the given item id. Removing an absent id
// leaves the store unchanged.
func (s *CartStore) RemoveItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, item := range s.items {
		if item.ItemID != itemID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.recompute()
}

func (s *CartStore) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.lastAdded = nil
	s.recompute()
}

// SetOpen sets the cart preview flag. UI state only, never persisted.
func (s *CartStore) SetOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = open
}

// Toggle flips the cart preview flag.
func (s *CartStore) Toggle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = !s.open
}

func (s *CartStore) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// Reset returns the store to its initial state. Called on logout.
func (s *CartStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.userID = ""
	s.totalItems = 0
	s.totalPrice = 0
	s.open = false
	s.loading = true
	s.lastAdded = nil
}

// recompute rederives the totals from the item list. Callers hold the lock.
func (s *CartStore) recompute() {
	totalItems := 0
	totalPrice := 0.0
	for _, item := range s.items {
		totalItems += item.Quantity
		totalPrice += item.Price * float64(item.Quantity)
	}
	s.totalItems = totalItems
	s.totalPrice = totalPrice
}
