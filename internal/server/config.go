// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the relay service.
package server

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int           `env:"RATE_LIMIT_BURST" envDefault:"5" validate:"gt=0"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"1s" validate:"gt=0"`
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Host            string          `env:"HOST"`
	Port            int             `env:"PORT" envDefault:"3000" validate:"min=1,max=65535"`
	MessagesFile    string          `env:"MESSAGES_FILE" envDefault:"messages.json" validate:"required"`
	AllowedOrigins  []string        `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	MaxMessageSize  int64           `env:"MAX_MESSAGE_SIZE" envDefault:"4096" validate:"gt=0"`
	SendBufferSize  int             `env:"SEND_BUFFER_SIZE" envDefault:"256" validate:"gt=0"`
	ShutdownTimeout time.Duration   `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	LogLevel        string          `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	RateLimit       RateLimitConfig
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg, err := parseConfig(map[string]string{})
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// NewConfigFromEnv creates a Config instance from environment variables,
// falling back to defaults for unset variables.
func NewConfigFromEnv() (*Config, error) {
	return parseConfig(nil)
}

func parseConfig(environment map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.Parse(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
