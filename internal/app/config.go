package app

import (
	"flag"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             int
	Env              string
	OtelCollectorUrl string
	DB               DBConfig
	Redis            RedisConfig
	SMTP             SMTPConfig
	Stripe           StripeConfig
	Auth             AuthConfig
	RateLimit        RateLimitConfig
	Webhook          WebhookConfig
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
	Migrate      bool
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessUrl    string
	FailureUrl    string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// WebhookConfig controls how events whose local processing failed are retried.
type WebhookConfig struct {
	MaxAttempts    int
	BatchSize      int
	PollInterval   time.Duration
	Lease          time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// parseFlags reads the configuration from the command line. Every flag
// defaults to the matching environment variable when it is set.
func parseFlags() (Config, bool) {
	var cfg Config

	flag.IntVar(&cfg.Port, "port", envInt("PORT", 4000), "server port")
	flag.StringVar(&cfg.Env, "env", envString("APP_ENV", "dev"), "Environment (dev|staging|prod)")
	flag.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", envString("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")

	flag.StringVar(&cfg.DB.DSN, "db-dsn", envString("DB_DSN", ""), "PostgreSQL DSN")
	flag.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", envInt("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	flag.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", envDuration("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max idle time for connections")
	flag.BoolVar(&cfg.DB.Migrate, "db-migrate", envBool("DB_MIGRATE", false), "Apply database migrations on startup")

	flag.StringVar(&cfg.Redis.URL, "redis-url", envString("REDIS_URL", ""), "Redis URL")
	flag.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", envInt("REDIS_MAX_OPEN_CONNS", 25), "Redis max open connections")
	flag.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", envInt("REDIS_MAX_IDLE_CONNS", 10), "Redis max idle connections")
	flag.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", envDuration("REDIS_MAX_IDLE_TIME", 2*time.Minute), "Redis max idle time for connections")

	flag.StringVar(&cfg.SMTP.Host, "smtp-host", envString("SMTP_HOST", "sandbox.smtp.mailtrap.io"), "SMTP host")
	flag.IntVar(&cfg.SMTP.Port, "smtp-port", envInt("SMTP_PORT", 2525), "SMTP port")
	flag.StringVar(&cfg.SMTP.Username, "smtp-username", envString("SMTP_USERNAME", ""), "SMTP username")
	flag.StringVar(&cfg.SMTP.Password, "smtp-password", envString("SMTP_PASSWORD", ""), "SMTP password")
	flag.StringVar(&cfg.SMTP.Sender, "smtp-sender", envString("SMTP_SENDER", "BrightNest <no-reply@brightnest.example>"), "SMTP sender")

	flag.StringVar(&cfg.Stripe.SecretKey, "stripe-key", envString("STRIPE_SECRET_KEY", ""), "Stripe secret key")
	flag.StringVar(&cfg.Stripe.WebhookSecret, "stripe-webhook-secret", envString("STRIPE_WEBHOOK_SECRET", ""), "Stripe webhook secret")
	flag.StringVar(&cfg.Stripe.Currency, "stripe-currency", envString("STRIPE_CURRENCY", "usd"), "Currency of every charge")
	flag.StringVar(&cfg.Stripe.SuccessUrl, "stripe-success-url", envString("STRIPE_SUCCESS_URL", "https://example.com/bookings?payment=success"), "Checkout success page used when no return URL is given")
	flag.StringVar(&cfg.Stripe.FailureUrl, "stripe-failure-url", envString("STRIPE_FAILURE_URL", "https://example.com/bookings?payment=cancelled"), "Checkout cancel page used when no return URL is given")

	flag.StringVar(&cfg.Auth.JWTSecret, "jwt-secret", envString("JWT_SECRET", ""), "Shared secret of the identity provider's access tokens")
	flag.StringVar(&cfg.Auth.Issuer, "jwt-issuer", envString("JWT_ISSUER", ""), "Expected access token issuer, empty to skip the check")

	flag.BoolVar(&cfg.RateLimit.Enabled, "limiter-enabled", envBool("LIMITER_ENABLED", true), "Enable the per-caller rate limiter on payment requests")
	flag.Float64Var(&cfg.RateLimit.RPS, "limiter-rps", envFloat("LIMITER_RPS", 2), "Rate limiter maximum requests per second")
	flag.IntVar(&cfg.RateLimit.Burst, "limiter-burst", envInt("LIMITER_BURST", 4), "Rate limiter maximum burst")

	flag.IntVar(&cfg.Webhook.MaxAttempts, "webhook-max-attempts", envInt("WEBHOOK_MAX_ATTEMPTS", 8), "Processing attempts before a webhook event is dead-lettered")
	flag.IntVar(&cfg.Webhook.BatchSize, "webhook-batch-size", envInt("WEBHOOK_BATCH_SIZE", 20), "Failed webhook events claimed per retry pass")
	flag.DurationVar(&cfg.Webhook.PollInterval, "webhook-poll-interval", envDuration("WEBHOOK_POLL_INTERVAL", 15*time.Second), "Interval between webhook retry passes")
	flag.DurationVar(&cfg.Webhook.Lease, "webhook-lease", envDuration("WEBHOOK_LEASE", time.Minute), "How long a claimed webhook event is hidden from other workers")
	flag.DurationVar(&cfg.Webhook.InitialBackoff, "webhook-initial-backoff", envDuration("WEBHOOK_INITIAL_BACKOFF", 30*time.Second), "Delay before the first webhook retry")
	flag.DurationVar(&cfg.Webhook.MaxBackoff, "webhook-max-backoff", envDuration("WEBHOOK_MAX_BACKOFF", time.Hour), "Upper bound of the webhook retry delay")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	return cfg, *displayVersion
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}

	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}

	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}

	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}

	return fallback
}
