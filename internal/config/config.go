package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env      string
	HTTPPort string

	// DBDriver selects the store backend: "sqlite3" (single-file, default)
	// or "pgx" (Postgres).
	DBDriver    string
	DatabaseURL string

	RedisAddr string

	// OTPBackend and QueueBackend select "memory" or "redis".
	OTPBackend   string
	QueueBackend string
	OTPTTL       time.Duration

	// FaceMatchThreshold is the Euclidean distance below which two
	// descriptors are considered the same person.
	FaceMatchThreshold float64

	RateLimitPerMin int

	JWTIssuer     string
	JWTSigningKey string
	AccessTTL     time.Duration
	AdminPassword string
}

// Load returns application config populated from environment variables with
// sensible defaults. A .env file in the working directory is honored when present.
func Load() App {
	_ = godotenv.Load()

	return App{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPPort:           getEnv("HTTP_PORT", "5000"),
		DBDriver:           getEnv("DB_DRIVER", "sqlite3"),
		DatabaseURL:        getEnv("DATABASE_URL", "data/students.db"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		OTPBackend:         getEnv("OTP_BACKEND", "memory"),
		QueueBackend:       getEnv("QUEUE_BACKEND", "memory"),
		OTPTTL:             durationEnv("OTP_TTL", 5*time.Minute),
		FaceMatchThreshold: floatEnv("FACE_MATCH_THRESHOLD", 0.6),
		RateLimitPerMin:    intEnv("RATE_LIMIT_PER_MIN", 120),
		JWTIssuer:          getEnv("JWT_ISSUER", "rollcall"),
		JWTSigningKey:      getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:          durationEnv("ACCESS_TTL", 12*time.Hour),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

func floatEnv(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
		log.Printf("invalid float for %s, using fallback %g", key, fallback)
	}
	return fallback
}
