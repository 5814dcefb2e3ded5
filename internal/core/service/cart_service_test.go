package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront-cart/internal/core/domain"
)

// Mock BackendGateway
type mockGateway struct {
	mu sync.Mutex

	cart    domain.Cart
	profile domain.UserProfile

	fetchCalls  int
	addCalls    int
	updateCalls int
	removeCalls int
	submitCalls int
	saveCalls   int

	fetchErr  error
	addErr    error
	updateErr error
	removeErr error
	submitErr error

	addResult *domain.CartItem
	// updateHook runs inside UpdateCartItem before the response is built,
	// letting tests interleave concurrent updates.
	updateHook func(call int)

	submitted [][]domain.OrderRequest
}

func (m *mockGateway) FetchCart(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	cart := m.cart
	cart.Items = append([]domain.CartItem(nil), m.cart.Items...)
	return &cart, nil
}

func (m *mockGateway) AddCartItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls++
	if m.addErr != nil {
		return nil, m.addErr
	}
	if m.addResult != nil {
		item := *m.addResult
		return &item, nil
	}
	return &domain.CartItem{
		ItemID:    "srv-" + productID,
		ProductID: productID,
		Quantity:  quantity,
	}, nil
}

func (m *mockGateway) UpdateCartItem(ctx context.Context, userID, itemID, productID string, quantity int) (*domain.CartItem, error) {
	m.mu.Lock()
	m.updateCalls++
	call := m.updateCalls
	hook := m.updateHook
	err := m.updateErr
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return nil, err
	}
	return &domain.CartItem{ItemID: itemID, ProductID: productID, Quantity: quantity}, nil
}

func (m *mockGateway) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeCalls++
	return m.removeErr
}

func (m *mockGateway) SubmitOrders(ctx context.Context, userID string, orders []domain.OrderRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitCalls++
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = append(m.submitted, append([]domain.OrderRequest(nil), orders...))
	return nil
}

func (m *mockGateway) FetchProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile := m.profile
	return &profile, nil
}

func (m *mockGateway) SaveProfile(ctx context.Context, userID string, profile domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	m.profile = profile
	return nil
}

func (m *mockGateway) counts() (fetch, add, update, remove, submit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls, m.addCalls, m.updateCalls, m.removeCalls, m.submitCalls
}

// Mock CacheRepository
type mockCache struct {
	mu            sync.Mutex
	carts         map[string]domain.Cart
	invalidations []string
}

func newMockCache() *mockCache {
	return &mockCache{carts: make(map[string]domain.Cart)}
}

func (m *mockCache) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	return &cart, nil
}

func (m *mockCache) SetCart(ctx context.Context, userID string, cart domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[userID] = cart
	return nil
}

func (m *mockCache) InvalidateCart(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	m.invalidations = append(m.invalidations, userID)
	return nil
}

func (m *mockCache) invalidated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.invalidations...)
}

func serverCart(userID string) domain.Cart {
	return domain.Cart{
		Items: []domain.CartItem{
			{ItemID: "i1", ProductID: "p1", Price: 100, Quantity: 2},
		},
		TotalItems: 2,
		TotalPrice: 200,
		UserID:     userID,
	}
}

func TestSetIdentity_FetchesOnLogin(t *testing.T) {
	gw := &mockGateway{cart: serverCart("u1")}
	svc := NewCartService(gw, newMockCache(), time.Second)

	if err := svc.SetIdentity(context.Background(), "u1"); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	state := svc.Store().Snapshot()
	if state.UserID != "u1" || state.TotalItems != 2 || state.TotalPrice != 200 {
		t.Errorf("store not reconciled: %+v", state)
	}
	if fetch, _, _, _, _ := gw.counts(); fetch != 1 {
		t.Errorf("fetch calls = %d, want 1", fetch)
	}
}

func TestSetIdentity_SameUserFetchesOnce(t *testing.T) {
	gw := &mockGateway{cart: serverCart("u1")}
	cache := newMockCache()
	svc := NewCartService(gw, cache, time.Second)

	ctx := context.Background()
	svc.SetIdentity(ctx, "u1")
	svc.SetIdentity(ctx, "u1")
	svc.SetIdentity(ctx, "u1")

	if fetch, _, _, _, _ := gw.counts(); fetch != 1 {
		t.Errorf("fetch calls = %d, want 1 for a stable identity", fetch)
	}
}

func TestSetIdentity_GuestNeverFetches(t *testing.T) {
	gw := &mockGateway{cart: serverCart("")}
	svc := NewCartService(gw, newMockCache(), time.Second)

	if err := svc.SetIdentity(context.Background(), ""); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	if fetch, _, _, _, _ := gw.counts(); fetch != 0 {
		t.Errorf("fetch calls = %d, want 0 for guests", fetch)
	}
}

func TestSetIdentity_LogoutResetsStore(t *testing.T) {
	gw := &mockGateway{cart: serverCart("u1")}
	svc := NewCartService(gw, newMockCache(), time.Second)

	ctx := context.Background()
	svc.SetIdentity(ctx, "u1")
	svc.SetIdentity(ctx, "")

	state := svc.Store().Snapshot()
	if len(state.Items) != 0 || state.UserID != "" {
		t.Errorf("store not reset on logout: %+v", state)
	}
}

func TestAddItem_AppliesCanonicalServerItem(t *testing.T) {
	// The backend reassigns the item id and clamps quantity to stock.
	gw := &mockGateway{
		addResult: &domain.CartItem{ItemID: "srv-42", ProductID: "p1", Price: 100, Quantity: 1, Stock: 1},
	}
	svc := NewCartService(gw, newMockCache(), 20*time.Millisecond)

	product := domain.Product{ID: "p1", Name: "widget", Price: 100}
	if err := svc.AddItem(context.Background(), product, 5); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	state := svc.Store().Snapshot()
	if len(state.Items) != 1 || state.Items[0].ItemID != "srv-42" || state.Items[0].Quantity != 1 {
		t.Errorf("canonical item not applied: %+v", state.Items)
	}
	if !state.Open {
		t.Error("cart preview should open after add")
	}

	// The preview auto-dismisses after the TTL.
	deadline := time.Now().Add(time.Second)
	for svc.Store().Snapshot().Open {
		if time.Now().After(deadline) {
			t.Fatal("cart preview never auto-closed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAddItem_RejectsZeroQuantity(t *testing.T) {
	gw := &mockGateway{}
	svc := NewCartService(gw, newMockCache(), time.Second)

	err := svc.AddItem(context.Background(), domain.Product{ID: "p1"}, 0)
	if !errors.Is(err, ErrQuantityTooLow) {
		t.Fatalf("err = %v, want ErrQuantityTooLow", err)
	}
	if _, add, _, _, _ := gw.counts(); add != 0 {
		t.Error("no backend call expected for invalid quantity")
	}
}

func TestAddItem_FailureLeavesStoreUnchanged(t *testing.T) {
	gw := &mockGateway{addErr: errors.New("boom")}
	svc := NewCartService(gw, newMockCache(), time.Second)
	svc.Store().SetCart(serverCart("u1"))

	before := svc.Store().Snapshot()
	if err := svc.AddItem(context.Background(), domain.Product{ID: "p9"}, 1); err == nil {
		t.Fatal("expected error")
	}
	after := svc.Store().Snapshot()

	if len(after.Items) != len(before.Items) || after.TotalItems != before.TotalItems {
		t.Errorf("store changed on failed add: %+v", after)
	}
}

func TestUpdateQuantity_RejectsBelowOne(t *testing.T) {
	gw := &mockGateway{}
	svc := NewCartService(gw, newMockCache(), time.Second)
	svc.Store().SetCart(serverCart("u1"))

	err := svc.UpdateQuantity(context.Background(), "i1", "p1", 0)
	if !errors.Is(err, ErrQuantityTooLow) {
		t.Fatalf("err = %v, want ErrQuantityTooLow", err)
	}
	if _, _, update, _, _ := gw.counts(); update != 0 {
		t.Error("no backend call expected for quantity below one")
	}
	if got := svc.Store().Snapshot().Items[0].Quantity; got != 2 {
		t.Errorf("quantity = %d, zero must never be stored", got)
	}
}

func TestUpdateQuantity_StaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	gw := &mockGateway{}
	gw.updateHook = func(call int) {
		if call == 1 {
			close(entered)
			<-release // hold the first response until the second lands
		}
	}
	svc := NewCartService(gw, newMockCache(), time.Second)
	svc.Store().SetCart(serverCart("u1"))

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		done <- svc.UpdateQuantity(ctx, "i1", "p1", 2)
	}()
	<-entered

	// Second update overtakes the first.
	if err := svc.UpdateQuantity(ctx, "i1", "p1", 5); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	if got := svc.Store().Snapshot().Items[0].Quantity; got != 5 {
		t.Errorf("quantity = %d, want 5: the stale first response must not win", got)
	}
}

func TestRemoveItem(t *testing.T) {
	gw := &mockGateway{}
	cache := newMockCache()
	svc := NewCartService(gw, cache, time.Second)
	svc.Store().SetCart(serverCart("u1"))
	svc.SetIdentity(context.Background(), "u1")

	if err := svc.RemoveItem(context.Background(), "i1"); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}

	state := svc.Store().Snapshot()
	if len(state.Items) != 0 || state.TotalItems != 0 {
		t.Errorf("item not removed: %+v", state)
	}
}

func TestMutations_InvalidateCachedCart(t *testing.T) {
	gw := &mockGateway{cart: serverCart("u1")}
	cache := newMockCache()
	svc := NewCartService(gw, cache, time.Second)

	ctx := context.Background()
	svc.SetIdentity(ctx, "u1")

	if err := svc.AddItem(ctx, domain.Product{ID: "p2", Price: 10}, 1); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if err := svc.UpdateQuantity(ctx, "i1", "p1", 3); err != nil {
		t.Fatalf("UpdateQuantity failed: %v", err)
	}
	if err := svc.RemoveItem(ctx, "i1"); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}

	invalidated := cache.invalidated()
	if len(invalidated) != 3 {
		t.Fatalf("invalidations = %d, want one per mutation", len(invalidated))
	}
	for _, key := range invalidated {
		if key != "u1" {
			t.Errorf("invalidated key = %q, want u1", key)
		}
	}
}

func TestRefresh_ServesFromCache(t *testing.T) {
	gw := &mockGateway{cart: serverCart("u1")}
	cache := newMockCache()
	cache.SetCart(context.Background(), "u1", serverCart("u1"))
	svc := NewCartService(gw, cache, time.Second)

	if err := svc.SetIdentity(context.Background(), "u1"); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	if fetch, _, _, _, _ := gw.counts(); fetch != 0 {
		t.Errorf("fetch calls = %d, want 0 on cache hit", fetch)
	}
	if got := svc.Store().Snapshot().TotalItems; got != 2 {
		t.Errorf("total_items = %d, want 2 from cached snapshot", got)
	}
}
