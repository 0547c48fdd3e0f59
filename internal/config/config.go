package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	ServerAddress  string        `env:"SERVER_ADDRESS"`
	BaseURL        string        `env:"BASE_URL"`
	DatabaseDSN    string        `env:"DATABASE_DSN"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	EncodingSize   int           `env:"LINK_ENCODING_SIZE" envDefault:"3"`
	Timezone       string        `env:"TIMEZONE" envDefault:"Europe/Moscow"`
	SweepInterval  time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"1m"`
	FlushInterval  time.Duration `env:"STATS_FLUSH_INTERVAL" envDefault:"1m"`
	JWTSecret      string        `env:"JWT_SECRET"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
}

func ParseFlags() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	envServerAddress := cfg.ServerAddress
	envBaseURL := cfg.BaseURL
	envDatabaseDSN := cfg.DatabaseDSN
	envRedisAddr := cfg.RedisAddr
	envJWTSecret := cfg.JWTSecret

	flag.StringVar(&cfg.ServerAddress, "a", "localhost:8080", "Address of the server")
	flag.StringVar(&cfg.BaseURL, "b", "http://localhost:8080", "Base URL for short links")
	flag.StringVar(&cfg.DatabaseDSN, "d", "", "PostgreSQL connection DSN")
	flag.StringVar(&cfg.RedisAddr, "r", "localhost:6379", "Redis address for the redirect cache")
	flag.StringVar(&cfg.JWTSecret, "s", "", "Secret key for signing access tokens")

	flag.Parse()

	if envServerAddress != "" {
		cfg.ServerAddress = envServerAddress
	}
	if envBaseURL != "" {
		cfg.BaseURL = envBaseURL
	}
	if envDatabaseDSN != "" {
		cfg.DatabaseDSN = envDatabaseDSN
	}
	if envRedisAddr != "" {
		cfg.RedisAddr = envRedisAddr
	}
	if envJWTSecret != "" {
		cfg.JWTSecret = envJWTSecret
	}

	cfg.applyDefaultValues()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis address cannot be empty")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret cannot be empty")
	}
	if c.EncodingSize < 1 {
		return fmt.Errorf("link encoding size must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.SweepInterval <= 0 || c.FlushInterval <= 0 {
		return fmt.Errorf("reconciler intervals must be positive")
	}
	return nil
}

func (c *Config) applyDefaultValues() {
	if c.ServerAddress == "" {
		c.ServerAddress = "localhost:8080"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Moscow"
	}
}
