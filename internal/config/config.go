package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/sellora/identity/pkg/config"
	"github.com/sellora/identity/pkg/database"
)

// Config holds all configuration for the identity service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"IDENTITY_HTTP_PORT" envDefault:"8010"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"identity"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Sessions
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionMinRenew time.Duration `env:"SESSION_MIN_RENEW" envDefault:"24h"`
	SessionCacheTTL time.Duration `env:"SESSION_CACHE_TTL" envDefault:"5m"`
	CookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"sellora_session"`
	CookieSecure    bool          `env:"SESSION_COOKIE_SECURE" envDefault:"true"`

	// One-time tokens
	VerificationTTL time.Duration `env:"VERIFICATION_TTL" envDefault:"1h"`
	InvitationTTL   time.Duration `env:"INVITATION_TTL" envDefault:"72h"`

	// Rate limiting for credential-sensitive operations
	RateLimitWindow      time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
	RateLimitMaxAttempts int           `env:"RATE_LIMIT_MAX_ATTEMPTS" envDefault:"-1"`

	// Providers whose email verification is trusted during account linking.
	TrustedProviders []string `env:"TRUSTED_PROVIDERS" envDefault:"google,github" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string  `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampler  float64 `env:"TRACING_SAMPLER" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load identity config: %w", err)
	}

	// Outside production a looser sign-in budget keeps local testing sane.
	if cfg.RateLimitMaxAttempts < 0 {
		if cfg.IsProduction() {
			cfg.RateLimitMaxAttempts = 5
		} else {
			cfg.RateLimitMaxAttempts = 50
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Postgres returns the connection settings in the shape the database package
// expects.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPassword,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSLMode,
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Redis returns the connection settings in the shape the database package
// expects.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive: %s", c.SessionTTL)
	}
	if c.SessionMinRenew < 0 || c.SessionMinRenew >= c.SessionTTL {
		return fmt.Errorf("session min renew must be shorter than the TTL: %s", c.SessionMinRenew)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window must be positive: %s", c.RateLimitWindow)
	}
	if c.RateLimitMaxAttempts < 1 {
		return fmt.Errorf("rate limit max attempts must be at least 1: %d", c.RateLimitMaxAttempts)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("at least one kafka broker is required")
	}
	return nil
}
