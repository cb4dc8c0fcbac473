package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL      string
	DatabaseMaxConns int

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Storage
	StoragePath string

	// Validation
	VideoFallbackDurationSeconds float64
	ValidationConcurrency        int
	WorkerCount                  int
	IngestRateLimit              int

	// Kafka
	KafkaBrokers         string
	KafkaSuspiciousTopic string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                         getEnvOrDefault("PORT", "8080"),
		Env:                          getEnvOrDefault("ENV", "development"),
		DatabaseURL:                  mustGetEnv("DATABASE_URL"),
		DatabaseMaxConns:             getEnvAsIntOrDefault("DATABASE_MAX_CONNS", 25),
		RedisURL:                     mustGetEnv("REDIS_URL"),
		JWTSecret:                    mustGetEnv("JWT_SECRET"),
		StoragePath:                  getEnvOrDefault("STORAGE_PATH", "./uploads"),
		VideoFallbackDurationSeconds: getEnvAsFloatOrDefault("VIDEO_FALLBACK_DURATION_SECONDS", 600),
		ValidationConcurrency:        getEnvAsIntOrDefault("VALIDATION_CONCURRENCY", 4),
		WorkerCount:                  getEnvAsIntOrDefault("WORKER_COUNT", 3),
		IngestRateLimit:              getEnvAsIntOrDefault("INGEST_RATE_LIMIT", 120),
		KafkaBrokers:                 getEnvOrDefault("KAFKA_BROKERS", ""),
		KafkaSuspiciousTopic:         getEnvOrDefault("KAFKA_SUSPICIOUS_TOPIC", "learning.suspicious-activity"),
		FrontendURL:                  getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// Non-positive values fall back to the default.
func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f <= 0 {
		return defaultVal
	}
	return f
}
