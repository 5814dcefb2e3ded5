package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-cart/internal/core/domain"
	"storefront-cart/internal/port"
	"storefront-cart/internal/schedule"
)

// ProfileService caches the acting user's shipping profile and coalesces
// rapid profile edits into a single backend save through a debouncer.
// It implements port.ProfileProvider for the order flow.
type ProfileService struct {
	backend port.BackendGateway
	saver   *schedule.Debouncer

	mu      sync.Mutex
	userID  string
	profile *domain.UserProfile
}

func NewProfileService(backend port.BackendGateway, saveDelay time.Duration) *ProfileService {
	return &ProfileService{
		backend: backend,
		saver:   schedule.NewDebouncer(saveDelay),
	}
}

// Profile returns the user's profile, from the local copy when it is
// current, otherwise from the backend.
func (p *ProfileService) Profile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	p.mu.Lock()
	if p.profile != nil && p.userID == userID {
		cached := *p.profile
		p.mu.Unlock()
		return &cached, nil
	}
	p.mu.Unlock()

	profile, err := p.backend.FetchProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	p.mu.Lock()
	p.userID = userID
	copied := *profile
	p.profile = &copied
	p.mu.Unlock()

	return profile, nil
}

// Save applies the edit locally right away and schedules the backend write.
// Bursts of edits collapse into one save carrying the final state.
func (p *ProfileService) Save(userID string, profile domain.UserProfile) {
	p.mu.Lock()
	p.userID = userID
	copied := profile
	p.profile = &copied
	p.mu.Unlock()

	p.saver.Call(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := p.backend.SaveProfile(ctx, userID, profile); err != nil {
			logger.Error().Err(err).Str("user_id", userID).Msg("profile save failed")
		}
	})
}

// Flush writes any pending save immediately. Called on session end so
// edits are not lost to the debounce window.
func (p *ProfileService) Flush() {
	p.saver.Flush()
}
