// Package config loads application configuration from the environment, with
// optional overrides from a YAML deploy file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Identity  IdentityConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	CORS      CORSConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST,default=0.0.0.0"`
	Port            int           `env:"SERVER_PORT,default=8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=15s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ThrottleRPS     int           `env:"SERVER_THROTTLE_RPS,default=20"`
	ThrottleBurst   int           `env:"SERVER_THROTTLE_BURST,default=40"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig configures the Postgres connection. An empty URL selects the
// in-memory store (local development and tests).
type DatabaseConfig struct {
	URL          string        `env:"DATABASE_URL"`
	MaxOpenConns int           `env:"DATABASE_MAX_OPEN_CONNS,default=10"`
	MaxIdleConns int           `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
	ConnLifetime time.Duration `env:"DATABASE_CONN_LIFETIME,default=30m"`
	Migrate      bool          `env:"DATABASE_MIGRATE,default=true"`
}

// RedisConfig configures the rate-limit counter store. An empty address
// selects the in-memory limiter.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

// IdentityConfig configures the external identity provider.
type IdentityConfig struct {
	BaseURL      string        `env:"IDENTITY_BASE_URL,default=https://api.clerk.com"`
	APIKey       string        `env:"IDENTITY_API_KEY"`
	JWTPublicKey string        `env:"IDENTITY_JWT_PUBLIC_KEY"` // PEM-encoded RSA public key
	Timeout      time.Duration `env:"IDENTITY_TIMEOUT,default=30s"`
}

// RateLimitConfig is the post-creation policy.
type RateLimitConfig struct {
	Limit  int           `env:"RATE_LIMIT_POSTS,default=3"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW,default=60s"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=json"`
}

// CORSConfig lists allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=*"`
}

// Load reads configuration from the environment. A .env file is honoured
// when present (or the explicit files passed in); a YAML file named by
// CONFIG_FILE overrides selected fields.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...) // optional, local development only

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// fileOverrides are the deploy-tunable fields a YAML config may set.
// Pointers distinguish "absent" from zero values.
type fileOverrides struct {
	RateLimit struct {
		Limit  *int           `yaml:"limit"`
		Window *time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	Logging struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
	} `yaml:"logging"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var ov fileOverrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if ov.RateLimit.Limit != nil {
		c.RateLimit.Limit = *ov.RateLimit.Limit
	}
	if ov.RateLimit.Window != nil {
		c.RateLimit.Window = *ov.RateLimit.Window
	}
	if len(ov.CORS.AllowedOrigins) > 0 {
		c.CORS.AllowedOrigins = ov.CORS.AllowedOrigins
	}
	if ov.Logging.Level != nil {
		c.Logging.Level = *ov.Logging.Level
	}
	if ov.Logging.Format != nil {
		c.Logging.Format = *ov.Logging.Format
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", c.RateLimit.Limit)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", c.RateLimit.Window)
	}
	return nil
}
