package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront-cart/internal/core/domain"
	"storefront-cart/internal/port"
	"storefront-cart/internal/schedule"
)

type FlowState string

const (
	FlowIdle       FlowState = "idle"
	FlowConfirming FlowState = "confirming"
	FlowSucceeded  FlowState = "succeeded"
	FlowFailed     FlowState = "failed"
)

var (
	ErrProfileIncomplete = errors.New("shipping profile is missing phone or address")
	ErrEmptyOrder        = errors.New("cart is empty")
	ErrNotConfirming     = errors.New("no confirmation in progress")
	ErrSubmitInFlight    = errors.New("submission already in progress")
)

// OrderFlowConfig carries the flow's UI timing. Both delays exist so the
// user can read the message before the screen moves on.
type OrderFlowConfig struct {
	// RedirectDelay is the pause before sending a user with an
	// incomplete profile to the profile editor.
	RedirectDelay time.Duration
	// CloseDelay is the pause before a successful confirmation modal
	// closes and the submitted items are cleared.
	CloseDelay time.Duration
}

// OrderFlow drives order submission for one session:
//
//	Idle -> Confirming -> (Succeeded | Failed)
//
// Confirm captures the target items and opens the confirmation modal.
// Submit validates locally, then posts one OrderRequest per item. A server
// rejection keeps the flow in Confirming so the user can retry or cancel
// without losing the cart.
type OrderFlow struct {
	backend  port.BackendGateway
	profiles port.ProfileProvider
	notifier port.OrderNotifier
	cart     *CartService
	journal  chan<- domain.OrderRecord
	cfg      OrderFlowConfig

	// onRedirect navigates the user to the profile editor. Supplied by
	// the surface that owns the flow.
	onRedirect func()

	redirectTimer schedule.Timer
	closeTimer    schedule.Timer

	mu         sync.Mutex
	state      FlowState
	items      []domain.CartItem
	message    string
	submitting bool
}

// FlowStatus is a snapshot of the flow for UI callers.
type FlowStatus struct {
	State   FlowState         `json:"state"`
	Message string            `json:"message,omitempty"`
	Items   []domain.CartItem `json:"items,omitempty"`
}

func NewOrderFlow(
	backend port.BackendGateway,
	profiles port.ProfileProvider,
	notifier port.OrderNotifier,
	cart *CartService,
	journal chan<- domain.OrderRecord,
	cfg OrderFlowConfig,
	onRedirect func(),
) *OrderFlow {
	return &OrderFlow{
		backend:    backend,
		profiles:   profiles,
		notifier:   notifier,
		cart:       cart,
		journal:    journal,
		cfg:        cfg,
		onRedirect: onRedirect,
		state:      FlowIdle,
	}
}

func (f *OrderFlow) Status() FlowStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FlowStatus{
		State:   f.state,
		Message: f.message,
		Items:   append([]domain.CartItem(nil), f.items...),
	}
}

// Confirm captures the items to be ordered and enters Confirming. No
// network traffic happens until Submit.
func (f *OrderFlow) Confirm(items []domain.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitting {
		return ErrSubmitInFlight
	}
	if len(items) == 0 {
		return ErrEmptyOrder
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return ErrQuantityTooLow
		}
	}

	f.items = append([]domain.CartItem(nil), items...)
	f.state = FlowConfirming
	f.message = ""
	return nil
}

// Cancel returns the flow to Idle with no side effects. Pending timers are
// stopped so a superseded redirect or auto-close never fires.
func (f *OrderFlow) Cancel() {
	f.redirectTimer.Stop()
	f.closeTimer.Stop()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = FlowIdle
	f.items = nil
	f.message = ""
}

// Submit validates the captured items against the shipping profile and
// posts them. Validation failures never reach the network; a profile
// without phone or address fails the flow and schedules the redirect to
// the profile editor. A backend rejection surfaces the response body
// verbatim and leaves the flow in Confirming for retry.
func (f *OrderFlow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.state != FlowConfirming {
		f.mu.Unlock()
		return ErrNotConfirming
	}
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.submitting = true
	items := append([]domain.CartItem(nil), f.items...)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	if len(items) == 0 {
		f.fail(FlowFailed, ErrEmptyOrder.Error())
		return ErrEmptyOrder
	}
	for _, item := range items {
		if item.Quantity < 1 {
			f.fail(FlowFailed, ErrQuantityTooLow.Error())
			return ErrQuantityTooLow
		}
	}

	userID := f.cart.Identity()
	profile, err := f.profiles.Profile(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("profile lookup failed")
		f.fail(FlowFailed, "could not load your profile")
		return fmt.Errorf("load profile: %w", err)
	}
	if !profile.ShippingComplete() {
		f.fail(FlowFailed, "please add your phone and address before ordering")
		if f.onRedirect != nil {
			f.redirectTimer.Schedule(f.cfg.RedirectDelay, f.onRedirect)
		}
		return ErrProfileIncomplete
	}

	orders := make([]domain.OrderRequest, 0, len(items))
	for _, item := range items {
		orders = append(orders, domain.OrderRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Comment:   "",
			Status:    domain.OrderStatusPending,
		})
	}

	if err := f.backend.SubmitOrders(ctx, userID, orders); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("order submission rejected")
		// Stay in Confirming: the user can retry without re-adding items.
		f.mu.Lock()
		f.state = FlowConfirming
		f.message = err.Error()
		f.mu.Unlock()
		return fmt.Errorf("submit orders: %w", err)
	}

	now := time.Now()
	for _, item := range items {
		f.journal <- domain.OrderRecord{
			ID:        uuid.NewString(),
			UserID:    userID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Status:    domain.OrderStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	f.mu.Lock()
	f.state = FlowSucceeded
	f.message = "order placed successfully"
	f.mu.Unlock()

	f.closeTimer.Schedule(f.cfg.CloseDelay, func() {
		f.finalize(items, userID)
	})
	return nil
}

// finalize runs when the success modal auto-closes: the submitted items are
// removed from the cart through the sync service and everyone watching
// order state is told to refresh.
func (f *OrderFlow) finalize(items []domain.CartItem, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, item := range items {
		if err := f.cart.RemoveItem(ctx, item.ItemID); err != nil {
			logger.Error().Err(err).Str("item_id", item.ItemID).Msg("failed to clear submitted item")
		}
	}

	if err := f.notifier.OrdersChanged(ctx, userID); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("orders-changed notification failed")
	}

	f.mu.Lock()
	f.state = FlowIdle
	f.items = nil
	f.message = ""
	f.mu.Unlock()
}

func (f *OrderFlow) fail(state FlowState, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.message = message
}

// Close stops outstanding timers without running them.
func (f *OrderFlow) Close() {
	f.redirectTimer.Stop()
	f.closeTimer.Stop()
}
