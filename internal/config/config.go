package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/jihadnassar202/E-Commerce-Project/pkg/config"
	"github.com/jihadnassar202/E-Commerce-Project/pkg/database"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Redis session store
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// CartTTL is the logical expiry observed on read. CartStoreTTL is the
	// Redis key TTL, a safety net that must outlast the logical expiry.
	CartTTL      time.Duration `env:"CART_TTL" envDefault:"24h"`
	CartStoreTTL time.Duration `env:"CART_STORE_TTL" envDefault:"48h"`

	// LockTimeout bounds the wait on product row locks during checkout.
	LockTimeout time.Duration `env:"CHECKOUT_LOCK_TIMEOUT" envDefault:"3s"`

	// SlowQueryThresholdMs logs database queries slower than this many
	// milliseconds. Zero disables slow query logging.
	SlowQueryThresholdMs int `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Rate limiting. RPS <= 0 disables the limiter.
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"100"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CartTTL <= 0 {
		return fmt.Errorf("cart TTL must be positive, got %s", c.CartTTL)
	}
	if c.CartStoreTTL < c.CartTTL {
		return fmt.Errorf("cart store TTL %s must not be shorter than cart TTL %s", c.CartStoreTTL, c.CartTTL)
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("checkout lock timeout must be positive, got %s", c.LockTimeout)
	}
	return nil
}

// Postgres builds the pool configuration from the flat env fields.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPassword
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSLMode
	return pg
}

// Redis builds the session store configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
