package config

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Settings is the portal-svc runtime configuration.
type Settings struct {
	Port         string
	BackendURL   string
	PublicOrigin string
	LogLevel     string
	Environment  string

	APITimeout      time.Duration
	APIMaxRetries   int
	APIRetryBackoff time.Duration
	APIRateLimit    float64
	APIRateBurst    int

	StorageBackend   string
	RedisAddr        string
	SessionTTL       time.Duration
	PaymentMarkerTTL time.Duration
	ProfileIdleTTL   time.Duration

	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string

	KafkaBroker string
	KafkaTopic  string

	TossClientKey   string
	TossCheckoutURL string

	GeocoderURL     string
	GeocoderKey     string
	GeocoderTimeout time.Duration

	GatewayPort  string
	PortalSvcURL string
}

// Load reads an optional .env file and then the process environment.
func Load() Settings {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded, using environment only")
	}

	return Settings{
		Port:         getEnv("PORT", "8090"),
		BackendURL:   strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8080"), "/"),
		PublicOrigin: strings.TrimRight(getEnv("PUBLIC_ORIGIN", "http://localhost:8000"), "/"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Environment:  getEnv("ENVIRONMENT", "development"),

		APITimeout:      getDuration("API_TIMEOUT", 0),
		APIMaxRetries:   getInt("API_MAX_RETRIES", 0),
		APIRetryBackoff: getDuration("API_RETRY_BACKOFF", 200*time.Millisecond),
		APIRateLimit:    getFloat("API_RATE_LIMIT", 0),
		APIRateBurst:    getInt("API_RATE_BURST", 1),

		StorageBackend:   strings.ToLower(getEnv("STORAGE_BACKEND", StorageMemory)),
		RedisAddr:        getEnv("REDIS_HOST", "localhost") + ":" + getEnv("REDIS_PORT", "6379"),
		SessionTTL:       getDuration("SESSION_TTL", 30*time.Minute),
		PaymentMarkerTTL: getDuration("PAYMENT_MARKER_TTL", 24*time.Hour),
		ProfileIdleTTL:   getDuration("PROFILE_IDLE_TTL", 2*time.Hour),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "manjok_portal"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),

		KafkaBroker: getEnv("KAFKA_BROKER", ""),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "portal-checkout"),

		TossClientKey:   getEnv("TOSS_CLIENT_KEY", ""),
		TossCheckoutURL: getEnv("TOSS_CHECKOUT_URL", "https://pay.toss.im/checkout"),

		GeocoderURL:     getEnv("GEOCODER_URL", ""),
		GeocoderKey:     getEnv("GEOCODER_KEY", ""),
		GeocoderTimeout: getDuration("GEOCODER_TIMEOUT", 3*time.Second),

		GatewayPort:  getEnv("GATEWAY_PORT", "8000"),
		PortalSvcURL: strings.TrimRight(getEnv("PORTAL_SVC_URL", "http://localhost:8090"), "/"),
	}
}

// PostgresDSN builds a lib/pq connection string from the DB_* settings.
func (s Settings) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		s.DBHost, s.DBPort, s.DBUser, s.DBPassword, s.DBName)
}

func MustInitPostgres(dsn string) *sql.DB {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

func MustInitRedis(addr string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	return client
}

func NewKafkaWriter(broker, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil && value >= 0 {
		return value
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil && value >= 0 {
		return value
	}
	return defaultValue
}

// getDuration accepts Go duration strings ("3s", "30m") or bare seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
		return d
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
