package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret []byte

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string

	CatalogURL string
	CouponURL  string
	OrderURL   string

	HTTPClientTimeout time.Duration
	SessionIdleTTL    time.Duration
}

// Load reads .env when present and then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("notice: .env not loaded: %v", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", ""),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		CatalogURL: strings.TrimRight(os.Getenv("CATALOG_URL"), "/"),
		CouponURL:  strings.TrimRight(os.Getenv("COUPON_URL"), "/"),
		OrderURL:   strings.TrimRight(os.Getenv("ORDER_URL"), "/"),

		HTTPClientTimeout: EnvDurationDefault("HTTP_CLIENT_TIMEOUT", 5*time.Second),
		SessionIdleTTL:    EnvDurationDefault("SESSION_IDLE_TTL", 30*time.Minute),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
