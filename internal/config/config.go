package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
)

// Config is read once at startup from the environment, with a .env file as
// an optional local override.
type Config struct {
	HTTPAddr       string
	BackendURL     string
	BackendTimeout time.Duration
	RedisAddr      string
	MySQLDSN       string
	KafkaBrokers   []string
	KafkaTopic     string
	JWTSecret      string
	WorkerCount    int
	QueueSize      int

	// UI timing: cart preview auto-dismiss, profile redirect pause,
	// success modal auto-close and the profile save debounce window.
	PreviewTTL      time.Duration
	RedirectDelay   time.Duration
	CloseDelay      time.Duration
	ProfileSaveWait time.Duration
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:9000"),
		BackendTimeout:  getDuration("BACKEND_TIMEOUT", 10*time.Second),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		MySQLDSN:        getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "order-events"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret"),
		WorkerCount:     getInt("WORKER_COUNT", 4),
		QueueSize:       getInt("QUEUE_SIZE", 1024),
		PreviewTTL:      getDuration("CART_PREVIEW_TTL", 3*time.Second),
		RedirectDelay:   getDuration("PROFILE_REDIRECT_DELAY", 1500*time.Millisecond),
		CloseDelay:      getDuration("ORDER_CLOSE_DELAY", 2500*time.Millisecond),
		ProfileSaveWait: getDuration("PROFILE_SAVE_WAIT", 800*time.Millisecond),
	}
}

// NewKafkaWriter builds the orders-changed event writer.
func NewKafkaWriter(cfg Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}
