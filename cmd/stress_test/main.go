package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-cart/internal/adapter/backend"
	"storefront-cart/internal/adapter/storage"
	"storefront-cart/internal/core/domain"
	"storefront-cart/internal/core/service"
)

const (
	redisAddr     = "localhost:6379"
	userID        = "stress-user"
	totalRequests = 200
	productCount  = 5
)

// Hammers the cart sync service with concurrent add/update traffic against
// a running backend, then checks that the store's derived totals still
// match its item list.
func main() {
	ctx := context.Background()

	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:9000"
	}

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Clear previous test data
	rdb.Del(ctx, "cart:"+userID)

	cache := storage.NewRedisAdapter(rdb)
	gateway := backend.NewHTTPGateway(backendURL, 10*time.Second)

	svc := service.NewCartService(gateway, cache, time.Second)
	defer svc.Close()

	if err := svc.SetIdentity(ctx, userID); err != nil {
		log.Fatalf("failed to sync cart: %v", err)
	}

	// Counters
	var successCount atomic.Int32
	var failCount atomic.Int32

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			product := domain.Product{
				ID:    fmt.Sprintf("stress-product-%d", n%productCount),
				Name:  "stress product",
				Price: 10,
			}
			err := svc.AddItem(ctx, product, 1)
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	fail := failCount.Load()
	snapshot := svc.Store().Snapshot()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Printf("Cart Lines:       %d\n", len(snapshot.Items))
	fmt.Printf("Total Items:      %d\n", snapshot.TotalItems)
	fmt.Printf("Total Price:      %.2f\n", snapshot.TotalPrice)
	fmt.Println("==========================================")

	// The totals must stay derived from the item list no matter how the
	// responses interleaved.
	wantItems := 0
	wantPrice := 0.0
	for _, item := range snapshot.Items {
		wantItems += item.Quantity
		wantPrice += item.Price * float64(item.Quantity)
	}

	if snapshot.TotalItems == wantItems && snapshot.TotalPrice == wantPrice {
		fmt.Println("PASS: totals consistent with item list")
	} else {
		fmt.Printf("FAIL: totals %d/%.2f, derived %d/%.2f\n",
			snapshot.TotalItems, snapshot.TotalPrice, wantItems, wantPrice)
	}
}
