package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"storefront-cart/internal/adapter/backend"
	"storefront-cart/internal/adapter/handler"
	"storefront-cart/internal/adapter/notify"
	"storefront-cart/internal/adapter/storage"
	"storefront-cart/internal/config"
	"storefront-cart/internal/core/domain"
	"storefront-cart/internal/core/service"
	"storefront-cart/internal/port"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Initialize adapters
	redisAdapter := storage.NewRedisAdapter(rdb)
	mysqlAdapter := storage.NewMySQLAdapter(db)
	gateway := backend.NewHTTPGateway(cfg.BackendURL, cfg.BackendTimeout)

	kafkaWriter := config.NewKafkaWriter(cfg)
	hub := notify.NewWSHub()
	notifier := notify.Multi{notify.NewKafkaNotifier(kafkaWriter), hub}

	// Journal queue: accepted submissions flow through here to MySQL.
	journal := make(chan domain.OrderRecord, cfg.QueueSize)

	sessions := service.NewSessionManager(gateway, redisAdapter, notifier, journal, service.SessionConfig{
		PreviewTTL:      cfg.PreviewTTL,
		ProfileSaveWait: cfg.ProfileSaveWait,
		OrderFlow: service.OrderFlowConfig{
			RedirectDelay: cfg.RedirectDelay,
			CloseDelay:    cfg.CloseDelay,
		},
	})

	// Start journal workers
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			workerLoop(id, journal, mysqlAdapter)
		}(i)
	}
	log.Printf("started %d journal workers", cfg.WorkerCount)

	// Initialize HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	httpHandler := handler.NewHTTPHandler(sessions, mysqlAdapter, hub)
	httpHandler.Register(e, []byte(cfg.JWTSecret))

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil {
			log.Printf("HTTP server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	log.Println("HTTP server stopped")

	// Flush sessions, then drain the journal
	sessions.Close()
	close(journal)
	wg.Wait()
	log.Println("journal workers stopped")

	// Close connections
	kafkaWriter.Close()
	rdb.Close()
	db.Close()
	log.Println("connections closed")
}

func workerLoop(id int, journal <-chan domain.OrderRecord, db port.DatabaseRepository) {
	for record := range journal {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := db.CreateOrder(ctx, record); err != nil {
			log.Printf("worker %d: failed to journal order %s: %v", id, record.ID, err)
		} else {
			log.Printf("worker %d: journaled order %s", id, record.ID)
		}

		cancel()
	}
}
