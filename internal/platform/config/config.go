package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string // empty selects the in-memory store
	RedisURL          string // non-empty moves idempotency records to Redis
	Port              string
	IsProduction      bool
	LogLevel          string
	MigrationsEnabled bool
	JWTSecret         string
	JWTIssuer         string

	IdempotencyClaimTTL    time.Duration
	IdempotencyResultTTL   time.Duration
	IdempotencyWaitTimeout time.Duration

	TxMaxRetries     int
	TxRetryBaseDelay time.Duration
	TxRetryMaxDelay  time.Duration

	RateLimit          string // ulule limiter format, e.g. "100-M"
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MIGRATIONS_ENABLED", true)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "ledger-integrity-core")
	viper.SetDefault("IDEMPOTENCY_CLAIM_TTL", "5m")
	viper.SetDefault("IDEMPOTENCY_RESULT_TTL", "24h")
	viper.SetDefault("IDEMPOTENCY_WAIT_TIMEOUT", "10s")
	viper.SetDefault("TX_MAX_RETRIES", 3)
	viper.SetDefault("TX_RETRY_BASE_DELAY", "10ms")
	viper.SetDefault("TX_RETRY_MAX_DELAY", "200ms")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Using the in-memory store.")
	}
	cfg.RedisURL = viper.GetString("REDIS_URL")

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.LogLevel = viper.GetString("LOG_LEVEL")
	cfg.MigrationsEnabled = viper.GetBool("MIGRATIONS_ENABLED")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.IdempotencyClaimTTL = durationOrDefault("IDEMPOTENCY_CLAIM_TTL", 5*time.Minute)
	cfg.IdempotencyResultTTL = durationOrDefault("IDEMPOTENCY_RESULT_TTL", 24*time.Hour)
	cfg.IdempotencyWaitTimeout = durationOrDefault("IDEMPOTENCY_WAIT_TIMEOUT", 10*time.Second)

	cfg.TxMaxRetries = viper.GetInt("TX_MAX_RETRIES")
	if cfg.TxMaxRetries < 0 {
		log.Printf("Warning: Invalid value for TX_MAX_RETRIES (%d). Defaulting to 3.\n", cfg.TxMaxRetries)
		cfg.TxMaxRetries = 3
	}
	cfg.TxRetryBaseDelay = durationOrDefault("TX_RETRY_BASE_DELAY", 10*time.Millisecond)
	cfg.TxRetryMaxDelay = durationOrDefault("TX_RETRY_MAX_DELAY", 200*time.Millisecond)

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))

	return cfg, nil
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		}
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
