package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-cart/internal/core/domain"
)

const (
	cartKeyPrefix = "cart:"
	cartSnapTTL   = 5 * time.Minute
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// GetCart returns the cached snapshot for a user, nil on miss.
func (r *RedisAdapter) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	raw, err := r.client.Get(ctx, cartKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart snapshot: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return &cart, nil
}

func (r *RedisAdapter) SetCart(ctx context.Context, userID string, cart domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	return r.client.Set(ctx, cartKeyPrefix+userID, raw, cartSnapTTL).Err()
}

// InvalidateCart drops the snapshot after a mutation. Deleting an absent
// key is fine.
func (r *RedisAdapter) InvalidateCart(ctx context.Context, userID string) error {
	return r.client.Del(ctx, cartKeyPrefix+userID).Err()
}
