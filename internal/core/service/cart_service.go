package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront-cart/internal/core/domain"
	"storefront-cart/internal/core/store"
	"storefront-cart/internal/port"
	"storefront-cart/internal/schedule"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	// ErrQuantityTooLow is returned when a mutation would set a quantity
	// below one. The caller must remove the item instead; the service
	// never clamps silently.
	ErrQuantityTooLow = errors.New("quantity must be at least one, remove the item instead")
)

// CartService bridges the CartStore and the backend cart endpoints. The
// store is only ever mutated through it: the backend response is the
// canonical result of every mutation, and the cached cart snapshot is
// invalidated after each one so all observers converge.
type CartService struct {
	backend port.BackendGateway
	cache   port.CacheRepository
	store   *store.CartStore

	previewTTL   time.Duration
	previewTimer schedule.Timer

	mu       sync.Mutex
	userID   string
	guestKey string
	seq      map[string]uint64 // per-item mutation sequence, rejects stale responses
}

func NewCartService(backend port.BackendGateway, cache port.CacheRepository, previewTTL time.Duration) *CartService {
	return &CartService{
		backend:    backend,
		cache:      cache,
		store:      store.NewCartStore(),
		previewTTL: previewTTL,
		guestKey:   "guest-" + uuid.NewString(),
		seq:        make(map[string]uint64),
	}
}

// Store exposes the read side. Callers take snapshots; mutations go through
// the service.
func (s *CartService) Store() *store.CartStore {
	return s.store
}

// SetIdentity records the acting user. When a non-empty identity appears or
// changes, the store is reconciled against the backend cart. Guest sessions
// are never synced; clearing the identity resets the store.
func (s *CartService) SetIdentity(ctx context.Context, userID string) error {
	s.mu.Lock()
	prev := s.userID
	s.userID = userID
	s.mu.Unlock()

	if userID == "" {
		if prev != "" {
			s.previewTimer.Stop()
			s.store.Reset()
		}
		return nil
	}
	if userID == prev {
		return nil
	}
	return s.Refresh(ctx)
}

func (s *CartService) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Refresh fetches the backend cart and overwrites the store with it.
// No-op for guests.
func (s *CartService) Refresh(ctx context.Context) error {
	userID := s.Identity()
	if userID == "" {
		return nil
	}

	s.store.SetLoading(true)
	cart, err := s.cachedCart(ctx, userID)
	if err != nil {
		s.store.SetLoading(false)
		logger.Error().Err(err).Str("user_id", userID).Msg("cart fetch failed")
		return fmt.Errorf("fetch cart: %w", err)
	}

	s.store.SetCart(*cart)
	return nil
}

// AddItem posts the product to the backend and merges the canonical item
// returned by it into the store. The backend may assign a different item id
// or clamp the quantity against stock, so its response wins over the input.
// On success the cart preview opens and auto-dismisses after previewTTL.
func (s *CartService) AddItem(ctx context.Context, product domain.Product, quantity int) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}

	item, err := s.backend.AddCartItem(ctx, s.Identity(), product.ID, quantity)
	if err != nil {
		logger.Error().Err(err).Str("product_id", product.ID).Msg("add to cart failed")
		return fmt.Errorf("add cart item: %w", err)
	}

	s.store.AddItem(*item)
	s.store.SetOpen(true)
	s.previewTimer.Schedule(s.previewTTL, func() {
		s.store.SetOpen(false)
	})
	s.invalidate(ctx)
	return nil
}

// UpdateQuantity puts the new quantity to the backend and applies the
// canonical item locally. Responses that were overtaken by a newer mutation
// of the same item are discarded, so rapid +/- clicks settle on the last
// request rather than the last response.
func (s *CartService) UpdateQuantity(ctx context.Context, itemID, productID string, quantity int) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}

	seq := s.nextSeq(itemID)
	item, err := s.backend.UpdateCartItem(ctx, s.Identity(), itemID, productID, quantity)
	if err != nil {
		logger.Error().Err(err).Str("item_id", itemID).Msg("cart update failed")
		return fmt.Errorf("update cart item: %w", err)
	}

	if !s.isLatest(itemID, seq) {
		logger.Debug().Str("item_id", itemID).Msg("discarding stale cart update response")
		return nil
	}

	s.store.UpdateQuantity(item.ItemID, item.Quantity)
	s.invalidate(ctx)
	return nil
}

// RemoveItem deletes the item on the backend, then locally. Removing an
// already-absent item succeeds.
func (s *CartService) RemoveItem(ctx context.Context, itemID string) error {
	s.nextSeq(itemID)
	if err := s.backend.RemoveCartItem(ctx, s.Identity(), itemID); err != nil {
		logger.Error().Err(err).Str("item_id", itemID).Msg("cart remove failed")
		return fmt.Errorf("remove cart item: %w", err)
	}

	s.store.RemoveItem(itemID)
	s.invalidate(ctx)
	return nil
}

// cachedCart serves the cart from the snapshot cache, falling through to
// the backend and repopulating on a miss.
func (s *CartService) cachedCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cached, err := s.cache.GetCart(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Msg("cart cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	cart, err := s.backend.FetchCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetCart(ctx, userID, *cart); err != nil {
		logger.Warn().Err(err).Msg("cart cache write failed")
	}
	return cart, nil
}

// invalidate drops the cached snapshot after a successful mutation. Cache
// errors are logged, never surfaced: the store already holds the canonical
// result and observers will converge on the next fetch.
func (s *CartService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateCart(ctx, s.cacheKey()); err != nil {
		logger.Warn().Err(err).Msg("cart cache invalidation failed")
	}
}

// cacheKey is the acting user id, or a per-session guest sentinel.
func (s *CartService) cacheKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == "" {
		return s.guestKey
	}
	return s.userID
}

func (s *CartService) nextSeq(itemID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[itemID]++
	return s.seq[itemID]
}

func (s *CartService) isLatest(itemID string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq[itemID] == seq
}

// Close stops outstanding timers. Called when the owning session ends.
func (s *CartService) Close() {
	s.previewTimer.Stop()
}
