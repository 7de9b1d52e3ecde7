package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Public URL of the web app (Stripe redirects, CORS)
	BaseURL        string
	AllowedOrigins []string

	// Identity provider. Access tokens are HS256 JWTs signed with JWTSecret;
	// account removal goes through the provider's admin API.
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	IdentityAdminURL   string
	IdentityServiceKey string

	// Entitlements per role. Loaded from EntitlementsFile when set.
	EntitlementsFile string
	Entitlements     domain.Entitlements

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string // Optional custom domain URL

	// Worker Configuration
	WorkerEnabled      bool
	WorkerConcurrency  int
	WorkerPollInterval time.Duration
	WorkerJobTimeout   time.Duration

	// Stripe Billing Configuration
	// In development, billing handlers function as stubs if these are empty.
	StripeSecretKey     string // Stripe API secret key (sk_test_... or sk_live_...)
	StripeWebhookSecret string // Stripe webhook signing secret (whsec_...)

	// Stripe Price IDs
	StripeMonthlyPriceID    string
	StripeYearlyPriceID     string
	StripeCreditPackPriceID string
	CreditPackSize          int

	// Redis (optional). Used for the sports data cache and the API rate limiter.
	RedisURL       string
	SportsCacheTTL time.Duration

	// Upstream sports APIs
	UnihockeyAPIURL  string
	VolleyballAPIURL string
	HandballAPIURL   string
	HandballAPIKey   string
	SportsAPITimeout time.Duration

	// NATS (optional). Domain events are dropped when unset.
	NatsURL string

	// API rate limit per caller
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		BaseURL: getEnv("BASE_URL", "http://localhost:5173"),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", ""),
		JWTAudience:        getEnv("JWT_AUDIENCE", "authenticated"),
		IdentityAdminURL:   getEnv("IDENTITY_ADMIN_URL", ""),
		IdentityServiceKey: getEnv("IDENTITY_SERVICE_KEY", ""),

		EntitlementsFile: getEnv("ENTITLEMENTS_FILE", ""),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		// Worker defaults
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerJobTimeout:   getEnvDuration("WORKER_JOB_TIMEOUT", 2*time.Minute),

		// Stripe billing. Optional; billing endpoints answer 503 without a key.
		StripeSecretKey:         getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:     getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeMonthlyPriceID:    getEnv("STRIPE_MONTHLY_PRICE_ID", ""),
		StripeYearlyPriceID:     getEnv("STRIPE_YEARLY_PRICE_ID", ""),
		StripeCreditPackPriceID: getEnv("STRIPE_CREDIT_PACK_PRICE_ID", ""),
		CreditPackSize:          getEnvInt("CREDIT_PACK_SIZE", 20),

		RedisURL:       getEnv("REDIS_URL", ""),
		SportsCacheTTL: getEnvDuration("SPORTS_CACHE_TTL", 15*time.Minute),

		UnihockeyAPIURL:  getEnv("UNIHOCKEY_API_URL", "https://api-v2.swissunihockey.ch/api"),
		VolleyballAPIURL: getEnv("VOLLEYBALL_API_URL", "https://api.volleyball.ch/indoor"),
		HandballAPIURL:   getEnv("HANDBALL_API_URL", "https://clubapi.handball.ch/rest/v1"),
		HandballAPIKey:   getEnv("HANDBALL_API_KEY", ""),
		SportsAPITimeout: getEnvDuration("SPORTS_API_TIMEOUT", 10*time.Second),

		NatsURL: getEnv("NATS_URL", ""),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Parse allowed origins from comma-separated environment variable.
	// The web app origin is always allowed.
	cfg.AllowedOrigins = []string{strings.TrimRight(cfg.BaseURL, "/")}
	for _, origin := range strings.Split(getEnv("ALLOWED_ORIGINS", ""), ",") {
		trimmed := strings.TrimRight(strings.TrimSpace(origin), "/")
		if trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Env != "development" && len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters outside development")
	}

	// Validate storage configuration
	if cfg.StorageProvider == "r2" {
		if cfg.R2AccountID == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return nil, fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != "local" {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	if cfg.RateLimitRequests < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", cfg.RateLimitRequests)
	}
	if cfg.CreditPackSize < 1 {
		return nil, fmt.Errorf("CREDIT_PACK_SIZE must be at least 1, got %d", cfg.CreditPackSize)
	}

	// Entitlements
	entitlements, err := LoadEntitlements(cfg.EntitlementsFile)
	if err != nil {
		return nil, err
	}
	cfg.Entitlements = entitlements

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
