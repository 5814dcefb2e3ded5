package service

import (
	"context"
	"testing"
	"time"

	"storefront-cart/internal/core/domain"
)

func TestProfileService_CachesAfterFirstFetch(t *testing.T) {
	gw := &mockGateway{profile: completeProfile()}
	svc := NewProfileService(gw, 10*time.Millisecond)

	ctx := context.Background()
	first, err := svc.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if first.Phone == "" {
		t.Fatalf("unexpected profile: %+v", first)
	}

	// Change the backend copy; the cached one should still be served.
	gw.mu.Lock()
	gw.profile.Phone = "changed"
	gw.mu.Unlock()

	second, err := svc.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if second.Phone != first.Phone {
		t.Error("second lookup should come from the local copy")
	}
}

func TestProfileService_SaveCoalescesEdits(t *testing.T) {
	gw := &mockGateway{}
	svc := NewProfileService(gw, 20*time.Millisecond)

	profile := completeProfile()
	for _, phone := range []string{"1", "12", "123", "1234"} {
		profile.Phone = phone
		svc.Save("u1", profile)
	}

	waitFor(t, "debounced save", func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.profile.Phone == "1234"
	})

	gw.mu.Lock()
	saves := gw.saveCalls
	gw.mu.Unlock()
	if saves != 1 {
		t.Errorf("backend saves = %d, want the burst coalesced into 1", saves)
	}

	// The edit is visible locally before the backend write.
	cached, err := svc.Profile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if cached.Phone != "1234" {
		t.Errorf("phone = %q, want the latest edit", cached.Phone)
	}
}

func TestProfileService_FlushWritesPendingEdit(t *testing.T) {
	gw := &mockGateway{}
	svc := NewProfileService(gw, time.Hour)

	profile := domain.UserProfile{ID: "u1", Phone: "555", Address: "somewhere"}
	svc.Save("u1", profile)
	svc.Flush()

	waitFor(t, "flushed save", func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.profile.Phone == "555"
	})
}
