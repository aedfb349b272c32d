package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// RouteClassLimit configures the rate limiter for one route class.
type RouteClassLimit struct {
	WindowSeconds int // Window size in seconds
	MaxRequests   int // Maximum requests per window per client
	KeyExtractor  string // How the client identity is derived: "ip" or "api-key"
}

type Config struct {
	DatabaseURL     string // Empty means in-memory store (dev/test mode)
	RedisURL        string // Empty means no shared cache layer
	BaseURL         string // Public base URL for short links
	JWTSecret       string // Secret for verifying admin API bearer tokens
	FingerprintSalt string // Salt mixed into click fingerprints

	SlugLength      int    // Generated slug length
	SlugAlphabet    string // Characters used for generated slugs
	SlugMaxAttempts int    // Collision retry budget before Conflict

	CacheSize          int // Resolution cache entry bound (LRU)
	CacheTTLSeconds    int // TTL for positive cache entries
	NegativeTTLSeconds int // Short TTL for cached not-found results
	LookupTimeoutMS    int // Hard timeout on store lookups (cache-miss path)

	ClickQueueCapacity int // Click recorder queue bound
	ClickRetryMax      int // Retries before a click event is dropped
	ClickRetryBaseMS   int // Base delay for exponential backoff

	StatsBucketMinutes int // Aggregate time-series bucket granularity

	RedirectLimit RouteClassLimit // Loose limits for the public redirect path
	APILimit      RouteClassLimit // Strict limits for the API paths
}

func Load() *Config {
	// Try to load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	return &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		FingerprintSalt: getEnv("FINGERPRINT_SALT", "snaplink"),

		SlugLength:      getEnvInt("SLUG_LENGTH", 7),
		SlugAlphabet:    getEnv("SLUG_ALPHABET", "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"),
		SlugMaxAttempts: getEnvInt("SLUG_MAX_ATTEMPTS", 5),

		CacheSize:          getEnvInt("CACHE_SIZE", 10000),
		CacheTTLSeconds:    getEnvInt("CACHE_TTL_SECONDS", 3600),
		NegativeTTLSeconds: getEnvInt("NEGATIVE_TTL_SECONDS", 30),
		LookupTimeoutMS:    getEnvInt("LOOKUP_TIMEOUT_MS", 2000),

		ClickQueueCapacity: getEnvInt("CLICK_QUEUE_CAPACITY", 4096),
		ClickRetryMax:      getEnvInt("CLICK_RETRY_MAX", 3),
		ClickRetryBaseMS:   getEnvInt("CLICK_RETRY_BASE_MS", 100),

		StatsBucketMinutes: getEnvInt("STATS_BUCKET_MINUTES", 60),

		RedirectLimit: RouteClassLimit{
			WindowSeconds: getEnvInt("RATE_LIMIT_REDIRECT_WINDOW_SECONDS", 60),
			MaxRequests:   getEnvInt("RATE_LIMIT_REDIRECT_MAX_REQUESTS", 300), // Lenient for end users
			KeyExtractor:  getEnv("RATE_LIMIT_REDIRECT_KEY", "ip"),
		},
		APILimit: RouteClassLimit{
			WindowSeconds: getEnvInt("RATE_LIMIT_API_WINDOW_SECONDS", 60),
			MaxRequests:   getEnvInt("RATE_LIMIT_API_MAX_REQUESTS", 60), // Stricter for admin/API paths
			KeyExtractor:  getEnv("RATE_LIMIT_API_KEY", "api-key"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
